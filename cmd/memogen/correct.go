package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/memogen/internal/correct"
	"github.com/dusk-indust/memogen/internal/llm"
)

var (
	flagPreview    bool
	flagOutputMode string
	flagLLMVariant bool
)

var correctCmd = &cobra.Command{
	Use:   "correct <instruction.yml>",
	Short: "Apply a factual correction across a memo's sections",
	Long: `Apply the corrections in a YAML instruction file to every section that
states the stale fact. By default the corrected sections land in a new
version; the source run is never modified unless output_mode is in_place.

With --preview, report what would change without mutating anything.`,
	Args: cobra.ExactArgs(1),
	RunE: runCorrect,
}

func init() {
	correctCmd.Flags().BoolVar(&flagPreview, "preview", false, "dry run: show matches without applying")
	correctCmd.Flags().StringVar(&flagOutputMode, "output-mode", "", "override the instruction's output_mode (new_version or in_place)")
	correctCmd.Flags().BoolVar(&flagLLMVariant, "llm-variants", false, "derive extra variants with the LLM (needs OPENAI_API_KEY)")
}

func runCorrect(cmd *cobra.Command, args []string) error {
	inst, err := correct.LoadInstruction(args[0])
	if err != nil {
		return err
	}
	if flagOutputMode != "" {
		inst.OutputMode = correct.OutputMode(flagOutputMode)
		if err := inst.Validate(); err != nil {
			return err
		}
	}

	var matcher correct.Matcher = correct.NumericMatcher{}
	if flagLLMVariant {
		key := os.Getenv("OPENAI_API_KEY")
		if key == "" {
			return fmt.Errorf("--llm-variants requires OPENAI_API_KEY")
		}
		model := flagModel
		if model == "" {
			model = "gpt-4o"
		}
		client, err := llm.NewOpenAIClient(llm.Settings{Model: model, APIKey: key})
		if err != nil {
			return err
		}
		matcher = correct.LLMMatcher{Client: client, Inner: correct.NumericMatcher{}}
	}

	engine := correct.NewEngine(memoStore(), matcher, logger)

	if flagPreview {
		preview, err := engine.Preview(cmd.Context(), inst)
		if err != nil {
			return err
		}
		for _, a := range preview.Analyses {
			fmt.Printf("%q -> %q", a.Correction.Incorrect, a.Correction.Correct)
			if len(a.Variants) > 0 {
				fmt.Printf("  (also matching %v)", a.Variants)
			}
			fmt.Println()
		}
		for _, m := range preview.Matches {
			fmt.Printf("  section %d (%s): %d instances  …%s…\n", m.Number, m.Slug, m.Count, m.Sample)
		}
		for _, w := range preview.Warnings {
			fmt.Println("warning: " + w)
		}
		return nil
	}

	result, err := engine.Apply(cmd.Context(), inst)
	if err != nil {
		return err
	}
	for _, w := range result.Warnings {
		fmt.Println("warning: " + w)
	}
	fmt.Printf("Corrected %d instances across %d sections in %s/%s.\n",
		result.Instances, result.SectionsModified, inst.CompanyName, result.Run.Version)
	for _, f := range result.ModifiedFiles {
		fmt.Println("  " + f)
	}
	return nil
}
