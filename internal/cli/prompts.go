package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lumenscan/lumen/internal/catalog"
	"github.com/lumenscan/lumen/internal/config"
)

var flagPromptsLanguage string

var promptsCmd = &cobra.Command{
	Use:   "prompts",
	Short: "List the analysis prompt catalog",
	Long:  "Prompts lists the languages, categories, and subcategories available in the active prompt repository. Subcategory IDs are what --subcategories filters on.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(flagConfig, nil)
		if err != nil {
			return err
		}
		promptsFile := cfg.PromptsFile
		if flagPrompts != "" {
			promptsFile = flagPrompts
		}
		repo, err := catalog.LoadRepository(promptsFile)
		if err != nil {
			return err
		}

		languages := repo.Languages()
		if flagPromptsLanguage != "" {
			languages = []string{flagPromptsLanguage}
		}
		for _, lang := range languages {
			categories := repo.CategoryNames(lang)
			if len(categories) == 0 {
				fmt.Fprintf(os.Stdout, "%s: no templates\n", lang)
				continue
			}
			fmt.Fprintf(os.Stdout, "%s\n", lang)
			for _, category := range categories {
				fmt.Fprintf(os.Stdout, "  %s\n", category)
				for _, tmpl := range repo.Templates(lang, category) {
					fmt.Fprintf(os.Stdout, "    %-24s %s\n", tmpl.ID, tmpl.Name)
				}
			}
		}
		return nil
	},
}

func init() {
	promptsCmd.Flags().StringVar(&flagPromptsLanguage, "language", "", "Only list templates for one language")
	promptsCmd.Flags().StringVar(&flagPrompts, "prompts", "", "Prompt repository JSON file (default: built-in)")
}
