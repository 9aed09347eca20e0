// Command pixcrypt scrambles an image with a keyed per-pixel XOR or modular
// addition and restores it again with the same key.
//
//	pixcrypt encrypt photo.png scrambled.png 42 --algorithm add_key
//	pixcrypt decrypt scrambled.png photo.png 42 --algorithm add_key
package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"math/big"
	"os"
	"regexp"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/radeeyate/pixcrypt/software/cipher"
	"github.com/radeeyate/pixcrypt/software/pipeline"
)

func init() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}

type flags struct {
	algorithm string
	workers   int
	height    uint
	quiet     bool
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:   "pixcrypt <encrypt|decrypt> <input_path> <output_path> <key>",
		Short: "Image Encryption/Decryption Tool",
		Long: "Scrambles every pixel of an image with a keyed XOR or modular addition.\n" +
			"Not a secure cipher: use it for demonstrations only.",
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.ExactArgs(4)(cmd, args); err != nil {
				return usageError{err}
			}
			return nil
		},
		ValidArgs:     []string{string(pipeline.Encrypt), string(pipeline.Decrypt)},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(stdout, stderr, args, f)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err}
	})

	algs := lo.Map(cipher.Algorithms, func(a cipher.Algorithm, _ int) string { return string(a) })
	cmd.Flags().StringVarP(&f.algorithm, "algorithm", "a", string(cipher.XOR), "Encryption algorithm to use ("+strings.Join(algs, "|")+")")
	cmd.Flags().IntVarP(&f.workers, "workers", "w", 1, "Columns processed in parallel (0 or less uses every CPU)")
	cmd.Flags().UintVar(&f.height, "height", 0, "Downscale the input to this height first (0 keeps the original size)")
	cmd.Flags().BoolVarP(&f.quiet, "quiet", "q", false, "Do not print progress")
	return cmd
}

func run(stdout, stderr io.Writer, args []string, f flags) error {
	op, err := pipeline.ParseOperation(args[0])
	if err != nil {
		return usageError{err}
	}

	key, ok := new(big.Int).SetString(args[3], 10)
	if !ok {
		return usageError{fmt.Errorf("key must be an integer, got %q", args[3])}
	}

	workers := f.workers
	if workers <= 0 {
		workers = -1
	}
	cfg := pipeline.Config{
		Operation: op,
		Input:     args[1],
		Output:    args[2],
		Key:       cipher.NormalizeBigKey(key),
		Algorithm: f.algorithm,
		Workers:   workers,
		Height:    f.height,
	}
	if !f.quiet {
		cfg.Progress = newProgressBar(stderr, "Processing columns").Update
	}

	fmt.Fprintf(stdout, "%sing image...\n", capitalize(string(op)))
	if err := pipeline.Run(cfg); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Image saved to %s\n", cfg.Output)
	return nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

var negativeInt = regexp.MustCompile(`^-\d+$`)

// normalizeArgs lets a negative key be passed without "--": bare negative
// integers before any terminator are moved behind one so pflag does not read
// them as shorthand flags. A negative integer that is the value of a preceding
// flag stays where it is.
func normalizeArgs(fs *pflag.FlagSet, args []string) []string {
	var rest, negatives, tail []string
	takesValue := false
	for i, a := range args {
		if a == "--" {
			tail = args[i+1:]
			break
		}
		if takesValue {
			takesValue = false
			rest = append(rest, a)
			continue
		}
		if negativeInt.MatchString(a) {
			negatives = append(negatives, a)
			continue
		}
		takesValue = needsValue(fs, a)
		rest = append(rest, a)
	}
	if len(negatives) == 0 {
		return args
	}
	out := append(rest, "--")
	out = append(out, negatives...)
	return append(out, tail...)
}

// needsValue reports whether arg is a flag whose value is the next argument.
func needsValue(fs *pflag.FlagSet, arg string) bool {
	if !strings.HasPrefix(arg, "-") || strings.Contains(arg, "=") {
		return false
	}
	var f *pflag.Flag
	if name, ok := strings.CutPrefix(arg, "--"); ok {
		f = fs.Lookup(name)
	} else if len(arg) > 1 {
		// Combined shorthands: only the last one can consume the next argument.
		f = fs.ShorthandLookup(arg[len(arg)-1:])
	}
	return f != nil && f.NoOptDefVal == ""
}

// usageError marks failures caused by the command line itself; they are
// reported together with the usage text.
type usageError struct {
	error
}

func (e usageError) Unwrap() error {
	return e.error
}

func describe(err error) string {
	if errors.Is(err, pipeline.ErrUnexpected) {
		return fmt.Sprintf("An error occurred: %v", err)
	}
	return "Error: " + capitalize(err.Error())
}

func execute(args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd(stdout, stderr)
	cmd.SetArgs(normalizeArgs(cmd.Flags(), args))
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(stderr, describe(err))
		var ue usageError
		if errors.As(err, &ue) {
			fmt.Fprint(stderr, cmd.UsageString())
		}
		return 1
	}
	return 0
}

func main() {
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}
