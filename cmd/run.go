package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/anuj123upadhyay/pagedriver/api/schemas"
	"github.com/anuj123upadhyay/pagedriver/internal/browser"
	"github.com/anuj123upadhyay/pagedriver/internal/config"
	"github.com/anuj123upadhyay/pagedriver/internal/engine"
	"github.com/anuj123upadhyay/pagedriver/internal/export"
	"github.com/anuj123upadhyay/pagedriver/internal/observability"
	"github.com/anuj123upadhyay/pagedriver/internal/templates"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// runInput is the accepted shape of an --input document. A bare JSON array
// of actions is also accepted. A document naming a template expands it;
// template_params values may be strings, numbers, or booleans.
type runInput struct {
	Actions        []schemas.Action `json:"actions"`
	Template       string           `json:"template"`
	TemplateParams map[string]any   `json:"template_params"`
}

// newRunCmd creates and configures the `run` command.
func newRunCmd() *cobra.Command {
	var (
		inputPath    string
		templateName string
		templateArgs []string
	)

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Executes a browser automation workflow",
		Long: `Run executes a list of browser actions sequentially against a single
browser session. Actions come from a JSON input file (--input), a named
template (--template), or a small built-in demo list when neither is given.`,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			// Bind flags to their Viper keys so command-line values override
			// the config file and environment with the right precedence.
			if err := viper.BindPFlag("export.format", cmd.Flags().Lookup("format")); err != nil {
				return err
			}
			if err := viper.BindPFlag("export.output_dir", cmd.Flags().Lookup("output")); err != nil {
				return err
			}
			if err := viper.BindPFlag("engine.screenshot_dir", cmd.Flags().Lookup("screenshot-dir")); err != nil {
				return err
			}
			if err := viper.BindPFlag("browser.headless", cmd.Flags().Lookup("headless")); err != nil {
				return err
			}
			return viper.BindPFlag("browser.stealth_mode", cmd.Flags().Lookup("stealth"))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			// Re-load the config now that run flags are bound.
			runCfg, err := config.NewConfigFromViper(viper.GetViper())
			if err != nil {
				return fmt.Errorf("failed to finalize config: %w", err)
			}

			actions, err := resolveActions(inputPath, templateName, templateArgs, logger)
			if err != nil {
				return err
			}

			logger.Info("Executing workflow.",
				zap.Int("actions", len(actions)),
				zap.String("browser_type", runCfg.Browser.Type),
				zap.Bool("headless", runCfg.Browser.Headless),
				zap.Bool("stealth", runCfg.Browser.StealthMode),
			)

			factory := func(sessionCtx context.Context) (schemas.Session, error) {
				return browser.NewSession(sessionCtx, runCfg, logger)
			}
			eng := engine.NewEngine(runCfg, logger, factory)

			result, err := eng.Execute(ctx, actions)
			if err != nil {
				return err
			}

			// Export never rewrites the run outcome. A broken export is a
			// warning on top of an otherwise complete result.
			exporter := export.NewExporter(runCfg.Export, logger)
			artifact, exportErr := exporter.Write(result)
			if exportErr != nil {
				logger.Warn("Export failed, run result is still complete.", zap.Error(exportErr))
			}

			fmt.Printf("\nRun complete: %d/%d actions succeeded (%.0fms total)\n",
				result.Stats.SuccessfulActions,
				result.Stats.TotalActions,
				result.Stats.TotalExecutionTimeMs,
			)
			if artifact != "" {
				fmt.Printf("Result written to: %s\n", artifact)
			}
			return nil
		},
	}

	runCmd.Flags().StringVarP(&inputPath, "input", "i", "", "Path to a JSON action list ('-' reads stdin).")
	runCmd.Flags().StringVarP(&templateName, "template", "t", "", "Name of a workflow template to expand.")
	runCmd.Flags().StringArrayVarP(&templateArgs, "param", "p", nil, "Template parameter as key=value. Repeatable.")

	runCmd.Flags().StringP("format", "f", "", "Export format for the run result ('json', 'csv', 'excel').")
	runCmd.Flags().StringP("output", "o", "", "Directory for exported artifacts.")
	runCmd.Flags().String("screenshot-dir", "", "Directory for screenshot PNG artifacts.")
	runCmd.Flags().Bool("headless", true, "Run the browser headless.")
	runCmd.Flags().Bool("stealth", false, "Apply anti-detection measures to the session.")

	return runCmd
}

// resolveActions picks the action source: template, input document, or the
// built-in demo list. A template wins over an input file.
func resolveActions(inputPath, templateName string, templateArgs []string, logger *zap.Logger) ([]schemas.Action, error) {
	if templateName != "" {
		if inputPath != "" {
			logger.Warn("Both --template and --input given; the template takes precedence.",
				zap.String("template", templateName))
		}
		params, err := parseTemplateParams(templateArgs)
		if err != nil {
			return nil, err
		}
		actions, err := templates.Expand(templateName, params)
		if err != nil {
			return nil, err
		}
		logger.Info("Expanded template.", zap.String("template", templateName), zap.Int("actions", len(actions)))
		return actions, nil
	}

	if inputPath != "" {
		input, err := readInput(inputPath)
		if err != nil {
			return nil, err
		}
		if input.Template != "" {
			if len(input.Actions) > 0 {
				logger.Warn("Input document has both a template and actions; the template takes precedence.",
					zap.String("template", input.Template))
			}
			actions, err := templates.Expand(input.Template, coerceParams(input.TemplateParams))
			if err != nil {
				return nil, err
			}
			logger.Info("Expanded template.", zap.String("template", input.Template), zap.Int("actions", len(actions)))
			return actions, nil
		}
		return input.Actions, nil
	}

	logger.Info("No input provided, using the built-in demo workflow.")
	return demoActions(), nil
}

// readInput loads a run input document from a file or stdin.
func readInput(path string) (*runInput, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}

	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var actions []schemas.Action
		if err := jsonAPI.Unmarshal(data, &actions); err != nil {
			return nil, fmt.Errorf("failed to parse action list: %w", err)
		}
		return &runInput{Actions: actions}, nil
	}

	var input runInput
	if err := jsonAPI.Unmarshal(data, &input); err != nil {
		return nil, fmt.Errorf("failed to parse input document: %w", err)
	}
	return &input, nil
}

// coerceParams renders JSON parameter values as the strings the template
// layer parses.
func coerceParams(raw map[string]any) templates.Params {
	params := make(templates.Params, len(raw))
	for key, value := range raw {
		switch v := value.(type) {
		case string:
			params[key] = v
		case float64:
			params[key] = strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			params[key] = strconv.FormatBool(v)
		default:
			params[key] = fmt.Sprintf("%v", v)
		}
	}
	return params
}

// parseTemplateParams turns repeated key=value flags into template parameters.
func parseTemplateParams(args []string) (templates.Params, error) {
	params := make(templates.Params, len(args))
	for _, arg := range args {
		key, value, found := strings.Cut(arg, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid template parameter %q, expected key=value", arg)
		}
		params[key] = value
	}
	return params, nil
}

// demoActions is the fallback workflow when no input is given. It exercises
// navigation, reads, extraction, and capture against a stable public page.
func demoActions() []schemas.Action {
	return []schemas.Action{
		{Kind: schemas.ActionNavigate, Value: "https://example.com", Description: "Navigate to example.com for testing"},
		{Kind: schemas.ActionGetTitle, Description: "Get page title to verify page load"},
		{Kind: schemas.ActionExtractText, Selector: "h1", Description: "Extract heading text"},
		{Kind: schemas.ActionScreenshot, Description: "Capture screenshot to verify rendering"},
	}
}
