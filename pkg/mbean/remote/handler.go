// Package remote carries bean dispatch over HTTP. Requests are JSON
// envelopes posted to one endpoint; any WebServer adapter can serve them.
package remote

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/toyz/mbean/internal/errors"
	"github.com/toyz/mbean/pkg/mbean"
)

// RequestIDHeader carries the request id in both directions
const RequestIDHeader = "X-Request-ID"

// Request types
const (
	TypeRead      = "read"
	TypeReadMany  = "readMany"
	TypeWrite     = "write"
	TypeWriteMany = "writeMany"
	TypeExec      = "exec"
	TypeInfo      = "info"
	TypeList      = "list"
)

// Request is the envelope posted to the management endpoint
type Request struct {
	Type       string                 `json:"type"`
	Bean       string                 `json:"bean,omitempty"`
	Attribute  string                 `json:"attribute,omitempty"`
	Attributes []string               `json:"attributes,omitempty"`
	Value      interface{}            `json:"value,omitempty"`
	Values     []mbean.AttributeValue `json:"values,omitempty"`
	Operation  string                 `json:"operation,omitempty"`
	Arguments  []interface{}          `json:"arguments,omitempty"`
	Signature  []string               `json:"signature,omitempty"`
	Pattern    string                 `json:"pattern,omitempty"`
}

// Response is the envelope returned for every request
type Response struct {
	RequestID string      `json:"request_id"`
	Status    int         `json:"status"`
	Value     interface{} `json:"value,omitempty"`
	Error     *HttpError  `json:"error,omitempty"`
}

// Handler dispatches requests to the beans of a Server
type Handler struct {
	server mbean.Server
	logger *zap.Logger
}

// NewHandler creates a handler over server. A nil server means
// mbean.DefaultServer(); a nil logger means mbean.Logger().
func NewHandler(server mbean.Server, logger *zap.Logger) *Handler {
	if server == nil {
		server = mbean.DefaultServer()
	}
	if logger == nil {
		logger = mbean.Logger()
	}
	return &Handler{server: server, logger: logger}
}

// Execute runs one request and returns its encoded result
func (h *Handler) Execute(req *Request) (interface{}, error) {
	if req.Type == TypeList {
		return h.server.Names(req.Pattern)
	}
	switch req.Type {
	case TypeRead, TypeReadMany, TypeWrite, TypeWriteMany, TypeExec, TypeInfo:
	case "":
		return nil, ErrBadRequest("request type is required")
	default:
		return nil, ErrBadRequest("unknown request type " + req.Type)
	}
	if req.Bean == "" {
		return nil, ErrBadRequest("bean is required")
	}
	bean, ok := h.server.Lookup(req.Bean)
	if !ok {
		return nil, errors.BeanNotFound(req.Bean)
	}

	switch req.Type {
	case TypeRead:
		v, err := bean.GetAttribute(req.Attribute)
		return EncodeValue(v), err
	case TypeReadMany:
		values, err := bean.GetAttributes(req.Attributes)
		return EncodeValue(values), err
	case TypeWrite:
		return nil, bean.SetAttribute(req.Attribute, req.Value)
	case TypeWriteMany:
		values, err := bean.SetAttributes(req.Values)
		return EncodeValue(values), err
	case TypeExec:
		v, err := bean.Invoke(req.Operation, req.Arguments, req.Signature)
		return EncodeValue(v), err
	default:
		return bean.Info(), nil
	}
}

// Serve handles a POSTed request envelope
func (h *Handler) Serve(rc RequestContext) error {
	id := requestID(rc)
	body, err := rc.Body()
	if err != nil {
		return h.write(rc, id, nil, ErrBadRequest("cannot read body: "+err.Error()))
	}

	var req Request
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		return h.write(rc, id, nil, ErrBadRequest("malformed request: "+err.Error()))
	}

	value, err := h.Execute(&req)
	h.logger.Debug("management request",
		zap.String("request_id", id),
		zap.String("type", req.Type),
		zap.String("bean", req.Bean),
		zap.Error(err))
	return h.write(rc, id, value, err)
}

// ServeList handles GET requests listing bean names; the optional pattern
// query parameter filters them
func (h *Handler) ServeList(rc RequestContext) error {
	id := requestID(rc)
	names, err := h.server.Names(rc.QueryParam("pattern"))
	return h.write(rc, id, names, err)
}

func (h *Handler) write(rc RequestContext, id string, value interface{}, err error) error {
	resp := Response{RequestID: id, Status: http.StatusOK, Value: value}
	if err != nil {
		resp.Error = FromError(err)
		resp.Status = resp.Error.StatusCode
		resp.Value = nil
	}
	b, merr := json.Marshal(resp)
	if merr != nil {
		h.logger.Error("encoding response failed", zap.String("request_id", id), zap.Error(merr))
		resp = Response{RequestID: id, Status: http.StatusInternalServerError, Error: NewHttpError(http.StatusInternalServerError, merr.Error())}
		b, _ = json.Marshal(resp)
	}
	rc.SetHeader(RequestIDHeader, id)
	return rc.Blob(resp.Status, "application/json", b)
}

func requestID(rc RequestContext) string {
	if id := strings.TrimSpace(rc.Header(RequestIDHeader)); id != "" {
		return id
	}
	return uuid.NewString()
}

// Mount registers the management endpoints on ws: POST prefix for request
// envelopes and GET prefix/list for names.
func Mount(ws WebServer, prefix string, h *Handler) {
	prefix = "/" + strings.Trim(prefix, "/")
	ws.RegisterRoute(http.MethodPost, prefix, h.Serve)
	ws.RegisterRoute(http.MethodGet, strings.TrimSuffix(prefix, "/")+"/list", h.ServeList)
}
