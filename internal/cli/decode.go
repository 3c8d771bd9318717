package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/nfesynth/internal/accesskey"
	"github.com/roach88/nfesynth/internal/region"
)

// DecodeResult is the JSON payload of the decode command.
type DecodeResult struct {
	Key             string                 `json:"key"`
	Fields          []accesskey.FieldValue `json:"fields"`
	CheckDigitValid bool                   `json:"check_digit_valid"`
	ExpectedDigit   string                 `json:"expected_check_digit"`
	Region          *region.Info           `json:"region,omitempty"`
}

// NewDecodeCommand creates the decode command.
func NewDecodeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode <key>",
		Short: "Decode an access key into its fields",
		Long: `Split a 44-digit access key into its fields and report whether the
embedded mod-11 check digit matches.

Exit codes:
  0 - Key decoded
  1 - Key is malformed

Examples:
  nfesynth decode 35200114200166000187550010000000011000000012
  nfesynth decode 35200114200166000187550010000000011000000012 --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecode(rootOpts, cmd, args[0])
		},
	}
	return cmd
}

func runDecode(opts *RootOptions, cmd *cobra.Command, raw string) error {
	formatter := &OutputFormatter{
		Format:  opts.Format,
		Writer:  cmd.OutOrStdout(),
		Verbose: opts.Verbose,
	}

	key, err := accesskey.Decode(raw)
	if err != nil {
		var code string
		var ike *accesskey.InvalidKeyError
		if errors.As(err, &ike) {
			code = string(ike.Code)
		}
		_ = formatter.Error(code, err.Error(), nil)
		return WrapExitError(ExitFailure, "invalid access key", err)
	}

	// Decode guarantees digits, so the prefix always yields a check digit.
	want, _ := accesskey.ComputeCheckDigit(raw[:accesskey.Length-1])

	result := DecodeResult{
		Key:             key.String(),
		Fields:          key.Fields(),
		CheckDigitValid: key.Verify() == nil,
		ExpectedDigit:   string(want),
	}
	for _, info := range region.All() {
		if info.Code == key.Region() {
			result.Region = &info
			break
		}
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Chave: %s\n\n", result.Key)
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, f := range result.Fields {
		fmt.Fprintf(tw, "  %s\t%s\t(offset %d)\n", f.Name, f.Value, f.Offset)
	}
	_ = tw.Flush()
	fmt.Fprintln(out)

	if result.Region != nil {
		fmt.Fprintf(out, "UF: %s (%s)\n", result.Region.Abbreviation, result.Region.LocalityName)
	} else {
		fmt.Fprintf(out, "UF: desconhecida (cUF %s)\n", key.Region())
	}
	if result.CheckDigitValid {
		fmt.Fprintln(out, "Dígito verificador: ✅ válido")
	} else {
		fmt.Fprintf(out, "Dígito verificador: ❌ inválido (esperado %s)\n", result.ExpectedDigit)
	}
	return nil
}
