package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"omnisync/internal/model"
)

func newTrainCommand(ctx *commandContext) *cobra.Command {
	var dataPath string
	var epochs int
	var outputPath string

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train lip-sync weights (not implemented)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if outputPath == "" {
				outputPath = cfg.Paths.ModelPath
			}
			trainer := model.ScaffoldTrainer{
				Optimizer: model.NewAdam(model.DefaultLearningRate),
				Loss:      model.MSE{},
			}
			weights, err := trainer.Train(cmd.Context(), model.TrainRequest{
				DataPath: dataPath,
				Epochs:   epochs,
				Output:   outputPath,
			})
			if err != nil {
				return err
			}
			if err := (model.FileRepository{}).Save(weights, outputPath); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved weights to %s\n", outputPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&dataPath, "data", "", "Training data directory")
	cmd.Flags().IntVar(&epochs, "epochs", 1, "Number of training epochs")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Destination for trained weights (defaults to paths.model_path)")
	return cmd
}
