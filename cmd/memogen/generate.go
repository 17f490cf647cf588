package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dusk-indust/memogen/internal/agents"
	"github.com/dusk-indust/memogen/internal/llm"
	"github.com/dusk-indust/memogen/internal/outline"
	"github.com/dusk-indust/memogen/internal/pipeline"
	"github.com/dusk-indust/memogen/internal/research"
	"github.com/dusk-indust/memogen/internal/store"
)

var (
	flagType         string
	flagMode         string
	flagDeck         string
	flagOutline      string
	flagScorecard    string
	flagModel        string
	flagMaxRevisions int
	flagResume       bool
	flagParallel     bool

	flagTrademark bool
	flagSocials   bool
	flagLinks     bool
	flagTables    bool
	flagFactCheck bool
)

var generateCmd = &cobra.Command{
	Use:   "generate <company>",
	Short: "Run the memo pipeline for a company",
	Long: `Run the full pipeline: deck analysis (when a deck is given), research,
section drafting, optional enrichments, validation with a bounded revision
loop, and final assembly.

Credentials come from the environment: OPENAI_API_KEY enables LLM drafting,
TAVILY_API_KEY enables web research. With neither set the pipeline still
runs and emits template sections for manual completion.`,
	Args: cobra.ExactArgs(1),
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVar(&flagType, "type", "", "investment type: direct or fund")
	generateCmd.Flags().StringVar(&flagMode, "mode", string(pipeline.ModeConsider), "analytical mode: consider or justify")
	generateCmd.Flags().StringVar(&flagDeck, "deck", "", "path to the pitch deck")
	generateCmd.Flags().StringVar(&flagOutline, "outline", "", "custom outline YAML (overrides --type)")
	generateCmd.Flags().StringVar(&flagScorecard, "scorecard", "", "scorecard criteria YAML; enables the scorecard stage")
	generateCmd.Flags().StringVar(&flagModel, "model", "", "chat completion model")
	generateCmd.Flags().IntVar(&flagMaxRevisions, "max-revisions", 0, "revision passes before escalating (default 3)")
	generateCmd.Flags().BoolVar(&flagResume, "resume", false, "resume the company's latest run from its checkpoint")
	generateCmd.Flags().BoolVar(&flagParallel, "parallel-enrichments", true, "run enrichment stages concurrently")

	generateCmd.Flags().BoolVar(&flagTrademark, "trademark", false, "enable trademark enrichment")
	generateCmd.Flags().BoolVar(&flagSocials, "socials", false, "enable social-profile enrichment")
	generateCmd.Flags().BoolVar(&flagLinks, "links", false, "enable source link checking")
	generateCmd.Flags().BoolVar(&flagTables, "tables", false, "enable figure tabulation")
	generateCmd.Flags().BoolVar(&flagFactCheck, "fact-check", false, "flag uncited numeric claims")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	company := args[0]

	if err := pipeline.ValidateDeckPath(flagDeck); err != nil {
		return err
	}

	typ := pipeline.InvestmentType(flagType)
	if typ == "" {
		typ = pipeline.InvestmentType(cfg.InvestmentType)
	}
	if typ == "" {
		typ = pipeline.TypeDirect
	}
	if typ != pipeline.TypeDirect && typ != pipeline.TypeFund {
		return &pipeline.InputError{Msg: fmt.Sprintf("unknown investment type %q (want direct or fund)", typ)}
	}
	mode := pipeline.Mode(flagMode)
	if mode != pipeline.ModeConsider && mode != pipeline.ModeJustify {
		return &pipeline.InputError{Msg: fmt.Sprintf("unknown mode %q (want consider or justify)", mode)}
	}

	registry, err := loadRegistry(typ)
	if err != nil {
		return err
	}

	llmKey := os.Getenv("OPENAI_API_KEY")
	researchKey := os.Getenv("TAVILY_API_KEY")
	capability := pipeline.DetectCapabilities(llmKey, researchKey)
	logger.Info("capabilities detected", zap.String("level", capability.String()))

	deps := agents.Deps{
		Registry: registry,
		Extract:  agents.PlainTextExtractor{},
		Log:      logger,
	}
	if llmKey != "" {
		model := flagModel
		if model == "" {
			model = cfg.Model
		}
		if model == "" {
			model = "gpt-4o"
		}
		client, err := llm.NewOpenAIClient(llm.Settings{Model: model, APIKey: llmKey})
		if err != nil {
			return err
		}
		deps.LLM = client
	}
	if researchKey != "" {
		deps.Search = research.NewHTTPClient(researchKey)
	}

	st := memoStore()

	if flagResume {
		run, err := st.OpenRun(company, "latest")
		if err != nil {
			return err
		}
		deps.Run = run
		ctrl := newController(run, deps)
		defer ctrl.Close()
		state, err := ctrl.Resume(cmd.Context())
		if state != nil {
			printOutcome(run, state)
		}
		return err
	}

	run, err := st.CreateRun(company)
	if err != nil {
		return err
	}
	deps.Run = run

	state := pipeline.NewState(run, typ, mode)
	state.DeckPath = flagDeck
	state.ScorecardTemplate = resolveScorecard()
	state.Enrichments = pipeline.EnrichmentFlags{
		Trademark: flagTrademark || cfg.Enrichments.Trademark,
		Socials:   flagSocials || cfg.Enrichments.Socials,
		Links:     flagLinks || cfg.Enrichments.Links,
		Tables:    flagTables || cfg.Enrichments.Tables,
		FactCheck: flagFactCheck || cfg.Enrichments.FactCheck,
	}
	if flagMaxRevisions > 0 {
		state.MaxRevisions = flagMaxRevisions
	} else if cfg.MaxRevisions > 0 {
		state.MaxRevisions = cfg.MaxRevisions
	}

	ctrl := newController(run, deps)
	defer ctrl.Close()
	err = ctrl.Run(cmd.Context(), state)
	printOutcome(run, state)
	return err
}

func loadRegistry(typ pipeline.InvestmentType) (*outline.Registry, error) {
	path := flagOutline
	if path == "" {
		path = cfg.OutlinePath
	}
	if path != "" {
		return outline.Load(path)
	}
	return outline.Default(string(typ))
}

func resolveScorecard() string {
	if flagScorecard != "" {
		return flagScorecard
	}
	return cfg.ScorecardTemplate
}

func newController(run *store.Run, deps agents.Deps) *pipeline.Controller {
	ctrl := pipeline.NewController(run, agents.Stages(deps), logger,
		pipeline.WithParallelEnrichments(flagParallel))
	go func() {
		for event := range ctrl.Progress() {
			fmt.Println(pipeline.FormatProgress(event))
		}
	}()
	return ctrl
}

func printOutcome(run *store.Run, state *pipeline.State) {
	switch {
	case state.Escalated:
		fmt.Printf("\nRun %s escalated to human review after %d revision passes.\n",
			state.Version, state.RevisionCount)
	case state.Finalized:
		fmt.Printf("\nFinal draft: %s\n", run.Path(store.FinalDraft))
	}
}
