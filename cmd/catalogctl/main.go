package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/yungbote/catalog-backend/internal/app"
	"github.com/yungbote/catalog-backend/internal/modules/catalog/refresh"
	"github.com/yungbote/catalog-backend/internal/modules/catalog/snapshot"
)

const usage = `usage: catalogctl <command> [flags]

commands:
  refresh   -file snapshot.yaml [-prune]
  mandatory -channel LABEL [-channel LABEL ...]
  tree      -product ID
  reset     -keep ID,ID,...
  runs      [-limit N]
`

type labelList []string

func (l *labelList) String() string { return strings.Join(*l, ",") }
func (l *labelList) Set(v string) error {
	v = strings.TrimSpace(v)
	if v != "" {
		*l = append(*l, v)
	}
	return nil
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	cmd, args := os.Args[1], os.Args[2:]

	ctx := context.Background()
	application, err := app.New(ctx, false)
	if err != nil {
		fmt.Printf("init app: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()
	svc := application.Services.Catalog

	var out any
	switch cmd {
	case "refresh":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		file := fs.String("file", "", "snapshot file (YAML or JSON)")
		prune := fs.Bool("prune", false, "remove products missing from the snapshot")
		_ = fs.Parse(args)
		if *file == "" {
			fail("refresh: -file is required")
		}
		out, err = svc.Refresh(ctx, snapshot.NewFileSource(*file), refresh.Options{Prune: *prune})

	case "mandatory":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		var labels labelList
		fs.Var(&labels, "channel", "channel label (repeatable)")
		_ = fs.Parse(args)
		out, err = svc.MandatoryChannels(ctx, labels)

	case "tree":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		product := fs.Int64("product", 0, "external product id of the root")
		_ = fs.Parse(args)
		tree, ok, terr := svc.ExtensionTree(ctx, *product)
		if terr == nil && !ok {
			fail(fmt.Sprintf("tree: product %d not found", *product))
		}
		out, err = tree, terr

	case "reset":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		keep := fs.String("keep", "", "comma separated external product ids to keep")
		_ = fs.Parse(args)
		ids, perr := parseIDs(*keep)
		if perr != nil {
			fail(perr.Error())
		}
		var deleted int
		deleted, err = svc.RemoveAllExcept(ctx, ids)
		out = map[string]int{"deleted": deleted}

	case "runs":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		limit := fs.Int("limit", 20, "number of runs to show")
		_ = fs.Parse(args)
		out, err = svc.RefreshRuns(ctx, *limit)

	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		application.Log.Error("Command failed", "command", cmd, "error", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fail(err.Error())
	}
}

func parseIDs(raw string) ([]int64, error) {
	var out []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid product id %q", part)
		}
		out = append(out, id)
	}
	return out, nil
}

func fail(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
