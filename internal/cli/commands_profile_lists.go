package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ninejamarkets/market-cli/internal/domain"
	"github.com/ninejamarkets/market-cli/internal/service/editor"
	"github.com/ninejamarkets/market-cli/internal/service/output"
)

func newProfilePhonesCommand(deps Dependencies) *cobra.Command {
	var flags globalFlags

	cmd := &cobra.Command{
		Use:   "phones",
		Short: "List and edit profile phone numbers (at most 2).",
		RunE: func(cmd *cobra.Command, _ []string) error {
			run, err := openProfileRun(cmd, deps, flags)
			if err != nil {
				return err
			}
			defer run.editor.Close()
			return run.writePhones(cmd, "")
		},
	}

	addGlobalFlags(cmd, &flags)
	cmd.AddCommand(newProfilePhonesAddCommand(deps))
	cmd.AddCommand(newProfilePhonesSetCommand(deps))
	cmd.AddCommand(newProfilePhonesDeleteCommand(deps))
	return cmd
}

func newProfilePhonesAddCommand(deps Dependencies) *cobra.Command {
	var flags globalFlags

	cmd := &cobra.Command{
		Use:   "add <number>",
		Short: "Add a phone number.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			run, err := openProfileRun(cmd, deps, flags)
			if err != nil {
				return err
			}
			defer run.editor.Close()
			phones := run.editor.Phones()
			index, err := phones.Add()
			if err != nil {
				return run.fail(cmd, err)
			}
			if err := saveEntry(cmd, phones, index, func(pending *string) { *pending = args[0] }); err != nil {
				return run.fail(cmd, err)
			}
			return run.writePhones(cmd, fmt.Sprintf("added phone %d", index+1))
		},
	}

	addGlobalFlags(cmd, &flags)
	return cmd
}

func newProfilePhonesSetCommand(deps Dependencies) *cobra.Command {
	var flags globalFlags

	cmd := &cobra.Command{
		Use:   "set <position> <number>",
		Short: "Replace the phone number at a position.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			run, err := openProfileRun(cmd, deps, flags)
			if err != nil {
				return err
			}
			defer run.editor.Close()
			index, err := parseIndexArg(args[0])
			if err != nil {
				return run.fail(cmd, err)
			}
			phones := run.editor.Phones()
			if err := phones.Begin(index); err != nil {
				return run.fail(cmd, err)
			}
			if err := saveEntry(cmd, phones, index, func(pending *string) { *pending = args[1] }); err != nil {
				return run.fail(cmd, err)
			}
			return run.writePhones(cmd, fmt.Sprintf("updated phone %d", index+1))
		},
	}

	addGlobalFlags(cmd, &flags)
	return cmd
}

func newProfilePhonesDeleteCommand(deps Dependencies) *cobra.Command {
	var flags globalFlags

	cmd := &cobra.Command{
		Use:   "delete <position>",
		Short: "Delete the phone number at a position.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			run, err := openProfileRun(cmd, deps, flags)
			if err != nil {
				return err
			}
			defer run.editor.Close()
			index, err := parseIndexArg(args[0])
			if err != nil {
				return run.fail(cmd, err)
			}
			if err := run.editor.Phones().Delete(cmd.Context(), index); err != nil {
				return run.fail(cmd, err)
			}
			return run.writePhones(cmd, fmt.Sprintf("deleted phone %d", index+1))
		},
	}

	addGlobalFlags(cmd, &flags)
	return cmd
}

func (r *profileRun) writePhones(cmd *cobra.Command, updated string) error {
	phones := r.editor.Phones()
	rows := make([]any, 0, domain.MaxPhoneNumbers)
	for i, number := range phones.Values() {
		rows = append(rows, map[string]any{"position": i + 1, "number": number})
	}
	data := map[string]any{
		"phone_numbers": rows,
		"max":           phones.Max(),
	}
	if updated != "" {
		data["updated"] = updated
	}
	return writeResult(cmd, r.format, r.sess, r.flags.Output, data, buildPhonesTable)
}

func buildPhonesTable(data map[string]any) string {
	rows := make([][]string, 0)
	for _, value := range asSlice(data["phone_numbers"]) {
		row := asMap(value)
		rows = append(rows, []string{asString(row["position"]), fallbackString(asString(row["number"]), "-")})
	}
	title := fmt.Sprintf("Phone numbers (max %d)", asInt(data["max"]))
	if updated := asString(data["updated"]); updated != "" {
		title += ": " + updated
	}
	return output.RenderTable(title, []string{"#", "Number"}, rows)
}

// addressFlags collects address fields; only flags that were set are applied.
type addressFlags struct {
	name       string
	address    string
	city       string
	state      string
	country    string
	zipCode    string
	postalCode string
}

func (f *addressFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "Address label, for example Home or Shop.")
	cmd.Flags().StringVar(&f.address, "address", "", "Street address line.")
	cmd.Flags().StringVar(&f.city, "city", "", "City.")
	cmd.Flags().StringVar(&f.state, "state", "", "State.")
	cmd.Flags().StringVar(&f.country, "country", "", "Country.")
	cmd.Flags().StringVar(&f.zipCode, "zip-code", "", "Zip code.")
	cmd.Flags().StringVar(&f.postalCode, "postal-code", "", "Postal code.")
}

func (f *addressFlags) apply(cmd *cobra.Command, target *domain.Address) {
	fields := []struct {
		flag  string
		value string
		dest  *string
	}{
		{flag: "name", value: f.name, dest: &target.Name},
		{flag: "address", value: f.address, dest: &target.Address},
		{flag: "city", value: f.city, dest: &target.City},
		{flag: "state", value: f.state, dest: &target.State},
		{flag: "country", value: f.country, dest: &target.Country},
		{flag: "zip-code", value: f.zipCode, dest: &target.ZipCode},
		{flag: "postal-code", value: f.postalCode, dest: &target.PostalCode},
	}
	for _, field := range fields {
		if cmd.Flags().Changed(field.flag) {
			*field.dest = field.value
		}
	}
}

func newProfileAddressesCommand(deps Dependencies) *cobra.Command {
	var flags globalFlags

	cmd := &cobra.Command{
		Use:   "addresses",
		Short: "List and edit profile addresses (merchants: at most 2).",
		RunE: func(cmd *cobra.Command, _ []string) error {
			run, err := openProfileRun(cmd, deps, flags)
			if err != nil {
				return err
			}
			defer run.editor.Close()
			return run.writeAddresses(cmd, "")
		},
	}

	addGlobalFlags(cmd, &flags)
	cmd.AddCommand(newProfileAddressesAddCommand(deps))
	cmd.AddCommand(newProfileAddressesSetCommand(deps))
	cmd.AddCommand(newProfileAddressesDeleteCommand(deps))
	return cmd
}

func newProfileAddressesAddCommand(deps Dependencies) *cobra.Command {
	var flags globalFlags
	var fields addressFlags

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an address.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			run, err := openProfileRun(cmd, deps, flags)
			if err != nil {
				return err
			}
			defer run.editor.Close()
			var draft domain.Address
			fields.apply(cmd, &draft)
			if draft.IsBlank() {
				return run.fail(cmd, fmt.Errorf("address: %w", editor.ErrRequiredValue))
			}
			addresses := run.editor.Addresses()
			index, err := addresses.Add()
			if err != nil {
				return run.fail(cmd, err)
			}
			if err := saveEntry(cmd, addresses, index, func(pending *domain.Address) { *pending = draft }); err != nil {
				return run.fail(cmd, err)
			}
			return run.writeAddresses(cmd, fmt.Sprintf("added address %d", index+1))
		},
	}

	fields.register(cmd)
	addGlobalFlags(cmd, &flags)
	return cmd
}

func newProfileAddressesSetCommand(deps Dependencies) *cobra.Command {
	var flags globalFlags
	var fields addressFlags

	cmd := &cobra.Command{
		Use:   "set <position>",
		Short: "Change fields of the address at a position.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			run, err := openProfileRun(cmd, deps, flags)
			if err != nil {
				return err
			}
			defer run.editor.Close()
			index, err := parseIndexArg(args[0])
			if err != nil {
				return run.fail(cmd, err)
			}
			addresses := run.editor.Addresses()
			if err := addresses.Begin(index); err != nil {
				return run.fail(cmd, err)
			}
			if err := saveEntry(cmd, addresses, index, func(pending *domain.Address) { fields.apply(cmd, pending) }); err != nil {
				return run.fail(cmd, err)
			}
			return run.writeAddresses(cmd, fmt.Sprintf("updated address %d", index+1))
		},
	}

	fields.register(cmd)
	addGlobalFlags(cmd, &flags)
	return cmd
}

func newProfileAddressesDeleteCommand(deps Dependencies) *cobra.Command {
	var flags globalFlags

	cmd := &cobra.Command{
		Use:   "delete <position>",
		Short: "Delete the address at a position.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			run, err := openProfileRun(cmd, deps, flags)
			if err != nil {
				return err
			}
			defer run.editor.Close()
			index, err := parseIndexArg(args[0])
			if err != nil {
				return run.fail(cmd, err)
			}
			if err := run.editor.Addresses().Delete(cmd.Context(), index); err != nil {
				return run.fail(cmd, err)
			}
			return run.writeAddresses(cmd, fmt.Sprintf("deleted address %d", index+1))
		},
	}

	addGlobalFlags(cmd, &flags)
	return cmd
}

func (r *profileRun) writeAddresses(cmd *cobra.Command, updated string) error {
	addresses := r.editor.Addresses()
	data := map[string]any{
		"addresses": addressRows(addresses.Values()),
		"max":       addresses.Max(),
	}
	if updated != "" {
		data["updated"] = updated
	}
	return writeResult(cmd, r.format, r.sess, r.flags.Output, data, buildAddressesTable)
}

func buildAddressesTable(data map[string]any) string {
	rows := make([][]string, 0)
	for _, value := range asSlice(data["addresses"]) {
		row := asMap(value)
		rows = append(rows, []string{asString(row["position"]), formatAddress(row)})
	}
	title := "Addresses"
	if max := asInt(data["max"]); max > 0 {
		title = fmt.Sprintf("Addresses (max %d)", max)
	}
	if updated := asString(data["updated"]); updated != "" {
		title += ": " + updated
	}
	return output.RenderTable(title, []string{"#", "Address"}, rows)
}

// saveEntry edits the buffer of an entry in Editing and saves it. A failed
// save discards the edit so the list is left as it was.
func saveEntry[T any](cmd *cobra.Command, list *editor.List[T], index int, edit func(pending *T)) error {
	if err := list.Update(index, edit); err != nil {
		_ = list.Cancel(index)
		return err
	}
	if err := list.Save(cmd.Context(), index); err != nil {
		_ = list.Cancel(index)
		return err
	}
	return nil
}
