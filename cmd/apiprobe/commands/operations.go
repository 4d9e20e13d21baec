package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/apiprobe/apiprobe/links"
	"github.com/apiprobe/apiprobe/openapi"
	"github.com/spf13/cobra"
)

func newOperationsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "operations",
		Short: "List the operations of an API description",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			doc, err := loadDocument(ctx)
			if err != nil {
				return err
			}

			ops := collectOperations(ctx, doc)

			idx, err := links.Build(ops)
			if err != nil {
				log.Warn().Err(err).Msg("some links are malformed and were skipped")
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "METHOD\tPATH\tID\tPARAMS\tBODIES\tLINKS")

			for _, op := range ops {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\n",
					op.Method, op.Path, op.ID(),
					parameterCount(op), len(op.Bodies), outgoingCount(idx, op))
			}

			return w.Flush()
		},
	}
}

func parameterCount(op *openapi.Operation) int {
	count := 0
	for _, ps := range op.Parameters.All() {
		count += len(ps.Parameters)
	}
	return count
}

func outgoingCount(idx *links.Index, op *openapi.Operation) int {
	count := 0
	for _, link := range idx.Links() {
		if link.Source == op.ID() {
			count++
		}
	}
	return count
}
