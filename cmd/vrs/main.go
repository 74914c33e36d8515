// Command vrs is a thin CLI over the copy/merge/check operations in
// github.com/go-vrs/vrs/filter, mirroring the subcommand-dispatch style
// of the teacher's cmd/noisefs/main.go: a manual os.Args scan picks the
// subcommand, then a second manual scan (not flag.FlagSet, which can't
// interleave positional "+1201"/"-1201" selector tokens with named
// flags) parses everything after it. Grounded on spec.md §6's CLI
// surface and original_source/vrs/utils/cli/CliParsing.h's flag
// grammar.
package main

import (
	"fmt"
	"os"

	"github.com/go-vrs/vrs/internal/vlog"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "copy":
		err = runCopy(os.Args[2:])
	case "merge":
		err = runMerge(os.Args[2:])
	case "check":
		err = runCheck(os.Args[2:])
	case "-h", "--help", "help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "vrs: unknown subcommand %q\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		vlog.Default.WithComponent("cmd/vrs").Error("command failed", map[string]any{"error": err.Error()})
		fmt.Fprintf(os.Stderr, "vrs: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprint(os.Stderr, `usage: vrs <command> [arguments]

commands:
  copy <file> --to <out> [filters...]      copy a file, applying any filters
  merge <file>... --to <out> [filters...]  merge files into one, in timestamp order
  check <file>...                          print (and compare) logical checksums

filters (copy and merge):
  --after <t> | --before <t> | --range <a> <b> | --around <c> <r>
  --first-records
  +<selector> | -<selector>                 selector: RecordableTypeId, StreamId, or record type name
  --decimate <selector> <interval>
  --bucket-interval <s> | --bucket-max-delta <s>
  --compression=<preset> | --chunk-size <n>[M|G] | --mt <n>
  --file-tag <k> <v> | --stream-tag <selector> <k> <v>
  --no-progress
  --config <path>
`)
}
