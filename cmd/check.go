package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v2"

	"heartapi/ml"
)

// NewCheckCommand returns the command that loads the artifacts and prints
// the model info. It fails when the artifacts cannot be loaded or bound.
func NewCheckCommand() *cli.Command {
	return &cli.Command{
		Name:  "check",
		Usage: "Load the model artifacts and print the model info",
		Flags: append(configFlags(),
			&cli.StringFlag{
				Name:  "format",
				Value: "json",
				Usage: "output format: json or yaml",
			},
		),
		Action: check,
	}
}

func check(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	predictor, err := LoadPredictor(cfg.Model)
	if err != nil {
		return err
	}
	info, err := predictor.Info()
	if err != nil {
		return err
	}
	return writeInfo(output(cmd), info, cmd.String("format"))
}

func writeInfo(w io.Writer, info ml.ModelInfo, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	case "yaml":
		b, err := yaml.Marshal(info)
		if err != nil {
			return err
		}
		_, err = w.Write(b)
		return err
	default:
		return fmt.Errorf("unknown format %q, expected json or yaml", format)
	}
}

func output(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}
