package cli

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/spec-kit/it-helpdesk/internal/classifier"
)

func cmdClassify(rt *runtime) *cli.Command {
	var title, description string

	return &cli.Command{
		Name:  "classify",
		Usage: "Predict the support category of an incident text",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "title",
				Required:    true,
				Destination: &title,
			},
			&cli.StringFlag{
				Name:        "description",
				Destination: &description,
			},
		},
		Action: func(ctx context.Context, _ *cli.Command) error {
			result, err := classifier.NewDefault().Classify(ctx, title, description)
			if err != nil {
				return err
			}
			fmt.Fprintf(rt.out, "%s\t%.2f\n", result.Category, result.Confidence)
			return nil
		},
	}
}
