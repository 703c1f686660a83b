package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cppkit/directives/pkg/preproc"
	"github.com/spf13/cobra"
)

var version = "0.1.0"

// Preprocessor options
var (
	includePaths   []string
	systemPaths    []string
	defineFlags    []string
	undefineFlags  []string
	assertFlags    []string
	preprocessOnly bool // -E
	useExternalPP  bool
	pedantic       bool
	traditionalWrn bool
	warnImport     bool
	preprocessed   bool
	stdFlag        string
)

func main() {
	os.Exit(run())
}

func run() int {
	rootCmd := newRootCmd(os.Stdout, os.Stderr)
	// GCC accepts -Wtraditional/-Wimport as single-dash spellings of the
	// double-dash flags below; normalize them the way CompCert-derived
	// tooling normalizes its own single-dash debug flags.
	rootCmd.SetArgs(normalizeFlags(os.Args[1:]))
	if err := rootCmd.Execute(); err != nil {
		return 1
	}
	return 0
}

// singleDashAliases maps a GCC single-dash spelling to this CLI's
// double-dash flag name.
var singleDashAliases = map[string]string{
	"-Wtraditional":  "--traditional",
	"-Wimport":       "--warn-import",
	"-pedantic":      "--pedantic",
	"-fpreprocessed": "--preprocessed",
}

// normalizeFlags rewrites GCC-style single-dash boolean flags to the
// double-dash spellings pflag expects.
func normalizeFlags(args []string) []string {
	result := make([]string, len(args))
	for i, arg := range args {
		if alias, ok := singleDashAliases[arg]; ok {
			result[i] = alias
		} else {
			result[i] = arg
		}
	}
	return result
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "cpp [file]",
		Short: "cpp is a standalone C preprocessor directive processor",
		Long: `cpp recognizes and processes C preprocessing directives:
#define/#undef, #include/#include_next/#import, #if/#ifdef/#ifndef/
#elif/#else/#endif, #line, #error/#warning, #pragma, #ident, and
#assert/#unassert, then emits the expanded translation unit.`,
		Version:       version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				cmd.Help()
				return nil
			}
			filename := args[0]

			if preprocessOnly {
				return doPreprocessOnly(filename, out, errOut)
			}

			// Default behavior without -E still preprocesses, since this
			// CLI has nothing downstream of the preprocessor to hand off
			// to; this mirrors running `cpp` with no flags at all.
			return doPreprocessOnly(filename, out, errOut)
		},
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	rootCmd.Flags().StringArrayVarP(&includePaths, "include", "I", nil, "Add directory to include search path")
	rootCmd.Flags().StringArrayVar(&systemPaths, "isystem", nil, "Add directory to system include search path")
	rootCmd.Flags().StringArrayVarP(&defineFlags, "define", "D", nil, "Define macro (NAME or NAME=VALUE)")
	rootCmd.Flags().StringArrayVarP(&undefineFlags, "undefine", "U", nil, "Undefine macro")
	rootCmd.Flags().StringArrayVarP(&assertFlags, "assert", "A", nil, "Assert predicate (predicate=answer or predicate-)")
	rootCmd.Flags().BoolVarP(&preprocessOnly, "preprocess", "E", false, "Preprocess only, output to stdout")
	rootCmd.Flags().BoolVar(&useExternalPP, "external-cpp", false, "Use external C preprocessor instead of internal")
	rootCmd.Flags().BoolVar(&pedantic, "pedantic", false, "Warn on GCC extensions")
	rootCmd.Flags().BoolVar(&traditionalWrn, "traditional", false, "Warn about traditional-C incompatibilities")
	rootCmd.Flags().BoolVar(&warnImport, "warn-import", false, "Warn on use of #import")
	rootCmd.Flags().BoolVar(&preprocessed, "preprocessed", false, "Treat input as already preprocessed")
	rootCmd.Flags().StringVar(&stdFlag, "std", "", "Language standard (e.g. c11, gnu11)")

	return rootCmd
}

// buildPreprocessorOptions creates preproc.Options from CLI flags.
func buildPreprocessorOptions() *preproc.Options {
	opts := &preproc.Options{
		IncludePaths:        includePaths,
		SystemPaths:         systemPaths,
		Defines:             make(map[string]string),
		Undefines:           undefineFlags,
		Asserts:             assertFlags,
		UseExternal:         useExternalPP,
		Pedantic:            pedantic,
		TraditionalWarnings: traditionalWrn,
		WarnImport:          warnImport,
		Preprocessed:        preprocessed,
		Std:                 stdFlag,
	}

	for _, d := range defineFlags {
		if idx := strings.Index(d, "="); idx >= 0 {
			opts.Defines[d[:idx]] = d[idx+1:]
		} else {
			opts.Defines[d] = ""
		}
	}

	return opts
}

// doPreprocessOnly preprocesses and writes the result to out (-E, and the
// default action when no flag is given).
func doPreprocessOnly(filename string, out, errOut io.Writer) error {
	opts := buildPreprocessorOptions()
	opts.LineMarkers = true

	content, err := preproc.Preprocess(filename, opts)
	if err != nil {
		fmt.Fprintf(errOut, "cpp: %v\n", err)
		return err
	}

	fmt.Fprint(out, content)
	return nil
}
