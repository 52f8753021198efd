package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/toyz/mbean/internal/errors"
	"github.com/toyz/mbean/pkg/mbean"
	"github.com/toyz/mbean/pkg/mbean/client"
)

func newListCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list [pattern]",
		Short: "List the beans registered on a server",
		Example: `  mbean list
  mbean list 'app:type=Cache,*'`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pattern := ""
			if len(args) == 1 {
				pattern = args[0]
			}
			names, err := a.client().Names(cmd.Context(), pattern)
			if err != nil {
				return err
			}
			if len(names) == 0 {
				a.diag.Info("No beans match %q", pattern)
				return nil
			}
			for _, name := range names {
				a.diag.Result("%s", name)
			}
			return nil
		},
	}
}

func newInfoCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info <bean>",
		Short: "Describe the attributes and operations of a bean",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := a.client().Info(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			a.printInfo(info)
			return nil
		},
	}
}

func (a *app) printInfo(info *mbean.BeanInfo) {
	a.diag.Section(info.Name)
	a.diag.Result("Type: %s", info.ClassName)
	a.diag.Result("Description: %s", info.Description)

	a.diag.Category("Attributes")
	rows := make([][]string, 0, len(info.Attributes))
	for _, attr := range info.Attributes {
		rows = append(rows, []string{attr.Name, attr.Type, access(attr), attr.Description})
	}
	a.diag.Table([]string{"NAME", "TYPE", "ACCESS", "DESCRIPTION"}, rows)

	a.diag.Category("Operations")
	rows = rows[:0]
	for _, op := range info.Operations {
		rows = append(rows, []string{op.Name, "(" + strings.Join(op.Signature(), ", ") + ")", op.ReturnType, op.Description})
	}
	a.diag.Table([]string{"NAME", "SIGNATURE", "RETURNS", "DESCRIPTION"}, rows)
}

func access(attr mbean.AttributeInfo) string {
	switch {
	case attr.Readable && attr.Writable:
		return "rw"
	case attr.Writable:
		return "w"
	default:
		return "r"
	}
}

func newGetCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <bean> <attribute>...",
		Short: "Read attributes of a bean",
		Long: `Read one or more attributes. With a single attribute only the value is
printed; with several, a table of the attributes that could be read.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			bean, attrs := args[0], args[1:]
			c := a.client()
			if len(attrs) == 1 {
				value, err := c.GetAttribute(cmd.Context(), bean, attrs[0])
				if err != nil {
					return err
				}
				a.diag.Result("%s", formatValue(value))
				return nil
			}

			values, err := c.GetAttributes(cmd.Context(), bean, attrs...)
			if err != nil {
				return err
			}
			read := make(map[string]bool, len(values))
			rows := make([][]string, 0, len(values))
			for _, v := range values {
				read[v.Name] = true
				rows = append(rows, []string{v.Name, formatValue(v.Value)})
			}
			a.diag.Table([]string{"NAME", "VALUE"}, rows)
			for _, attr := range attrs {
				if !read[attr] {
					a.diag.Warn("%s could not be read", attr)
				}
			}
			return nil
		},
	}
}

func newSetCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set <bean> <attribute> <value>",
		Short: "Write an attribute of a bean",
		Long: `Write an attribute. The value is sent as text and parsed by the server
into the attribute type.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			bean, attr, value := args[0], args[1], args[2]
			if err := a.client().SetAttribute(cmd.Context(), bean, attr, value); err != nil {
				return err
			}
			a.diag.Success("%s = %s", attr, value)
			return nil
		},
	}
}

func newInvokeCommand(a *app) *cobra.Command {
	var signature []string

	cmd := &cobra.Command{
		Use:   "invoke <bean> <operation> [args...]",
		Short: "Invoke an operation of a bean",
		Long: `Invoke an operation. Arguments are sent as text and parsed by the server
into the parameter types. Without --signature the overload is picked by
argument count, which fails when it is ambiguous.`,
		Example: `  mbean invoke go.runtime:type=Runtime gc
  mbean invoke app:type=Cache resize 128 --signature int`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			bean, op := args[0], args[1]
			params := make([]interface{}, len(args)-2)
			for i, arg := range args[2:] {
				params[i] = arg
			}

			c := a.client()
			sig := signature
			if !cmd.Flags().Changed("signature") {
				resolved, err := resolveSignature(cmd.Context(), c, bean, op, len(params))
				if err != nil {
					return err
				}
				sig = resolved
			}
			if len(sig) != len(params) {
				return fmt.Errorf("signature has %d types but %d arguments were given", len(sig), len(params))
			}
			a.diag.Verbose("invoking %s(%s) on %s", op, strings.Join(sig, ","), bean)

			result, err := c.Invoke(cmd.Context(), bean, op, params, sig)
			if err != nil {
				return err
			}
			a.diag.Result("%s", formatValue(result))
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&signature, "signature", nil, "parameter types, comma separated")
	return cmd
}

// resolveSignature finds the single overload of op taking arity parameters
func resolveSignature(ctx context.Context, c *client.Client, bean, op string, arity int) ([]string, error) {
	info, err := c.Info(ctx, bean)
	if err != nil {
		return nil, err
	}
	var matches [][]string
	for _, o := range info.Operations {
		if o.Name == op && len(o.Parameters) == arity {
			matches = append(matches, o.Signature())
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return nil, errors.OperationNotFound(bean, op, fmt.Sprintf("%d parameters", arity)).
			WithSuggestion("run `mbean info " + bean + "` to list the operations")
	default:
		options := make([]string, len(matches))
		for i, m := range matches {
			options[i] = strings.Join(m, ",")
		}
		return nil, errors.Newf(errors.OperationNotFoundCode, "%s has %d overloads taking %d parameters", op, len(matches), arity).
			WithContext("bean", bean).
			WithSuggestion("pass --signature with one of: " + strings.Join(options, " | "))
	}
}

// formatValue renders a decoded attribute or result value for the terminal
func formatValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case *mbean.CompositeData:
		parts := make([]string, 0, val.Len())
		for _, item := range val.Items() {
			parts = append(parts, fmt.Sprintf("%s=%s", item.Name, formatValue(item.Value)))
		}
		return val.TypeName + "{" + strings.Join(parts, ", ") + "}"
	case []interface{}:
		parts := make([]string, len(val))
		for i, e := range val {
			parts[i] = formatValue(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case map[string]interface{}:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + "=" + formatValue(val[k])
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return fmt.Sprintf("%v", val)
	}
}
