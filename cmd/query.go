package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/entforge/entkit"
)

var (
	queryClass   string
	queryLayer   string
	queryInherit string
	queryKey     string
	queryValue   string
	queryNear    string
	queryRadius  float64
	queryPrefix  string
)

var countStyle = color.New(color.FgGreen, color.Bold)

var queryCmd = &cobra.Command{
	Use:   "query [file]",
	Short: "List entities matching a set of filters",
	Long: `Builds an index over one file and prints the names of entities
matching every active filter (filters combine with AND semantics).
Example) entkit query --class light --near 250,-740,-188 --radius 64 e1m1.entities`,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) != 1 {
			fmt.Println("error: Please provide exactly one file path")
			os.Exit(1)
		}

		doc, err := entkit.LoadFile(args[0])
		if err != nil {
			logger.Error("Failed to load file", zap.String("path", args[0]), zap.Error(err))
			os.Exit(1)
		}

		q := entkit.Query{
			Class:      queryClass,
			Layer:      queryLayer,
			Inherit:    queryInherit,
			Key:        queryKey,
			Value:      queryValue,
			Radius:     queryRadius,
			NamePrefix: queryPrefix,
		}
		if queryNear != "" {
			center, err := parseVec3(queryNear)
			if err != nil {
				fmt.Printf("error: invalid --near position: %v\n", err)
				os.Exit(1)
			}
			q.Center = center
		}

		names, err := entkit.NewIndex(doc).Run(q)
		if err != nil {
			fmt.Printf("error: %v\n", err)
			os.Exit(1)
		}

		for _, name := range names {
			fmt.Println(name)
		}
		fmt.Fprintln(os.Stderr, countStyle.Sprintf("%d entities", len(names)))
	},
}

func init() {
	queryCmd.Flags().StringVar(&queryClass, "class", "", "Filter by entity class")
	queryCmd.Flags().StringVar(&queryLayer, "layer", "", "Filter by layer membership")
	queryCmd.Flags().StringVar(&queryInherit, "inherit", "", "Filter by inherited def")
	queryCmd.Flags().StringVar(&queryKey, "key", "", "Filter by property key (exact match)")
	queryCmd.Flags().StringVar(&queryValue, "value", "", "Filter by scalar value substring")
	queryCmd.Flags().StringVar(&queryNear, "near", "", "Comma-separated x,y,z search center")
	queryCmd.Flags().Float64Var(&queryRadius, "radius", 0, "Search radius around --near")
	queryCmd.Flags().StringVar(&queryPrefix, "prefix", "", "Filter by entity name prefix")
}

func parseVec3(s string) (*entkit.Vec3, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return nil, fmt.Errorf("want x,y,z, got %q", s)
	}
	var out [3]float64
	for i, part := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return &entkit.Vec3{X: out[0], Y: out[1], Z: out[2]}, nil
}
