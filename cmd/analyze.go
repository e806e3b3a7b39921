package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sljesus/winm/analyzer"
	"github.com/sljesus/winm/extractor/common"
	"github.com/sljesus/winm/integrations/eml"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [path]",
	Short: "Analyze saved .eml files",
	Long: `Analyzes saved email files and prints the extracted transactions
as JSON. Point it at a single .eml file or at a directory; directories
are scanned for .eml files.`,
	Run: analyzeHandler,
}

func analyzeHandler(cmd *cobra.Command, args []string) {
	if len(args) == 1 {
		viper.Set("target", args[0])
	}
	target := viper.GetString("target")

	ctx := context.Background()
	chain, err := buildAnalyzer(ctx, nil)
	if err != nil {
		log.Fatalf("error: could not build analyzer: %v", err)
	}

	if info, err := os.Stat(target); err == nil && info.IsDir() {
		analyzeDirectory(ctx, chain, target)
		return
	}
	analyzeFile(ctx, chain, target)
}

func analyzeDirectory(ctx context.Context, chain analyzer.Analyzer, dir string) {
	log.Println("📂 Scanning", dir)

	entries, err := os.ReadDir(dir)
	if err != nil {
		log.Fatal(err)
	}

	result := []*common.Transaction{}
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".eml") {
			continue
		}

		transaction := analyzeOne(ctx, chain, filepath.Join(dir, e.Name()))
		if transaction != nil {
			result = append(result, transaction)
		}
	}

	asJSON, _ := json.Marshal(result)
	fmt.Println(string(asJSON))
}

func analyzeFile(ctx context.Context, chain analyzer.Analyzer, path string) {
	log.Println("📄 Scanning", path)

	transaction := analyzeOne(ctx, chain, path)
	if transaction == nil {
		asJSON, _ := json.Marshal(struct{}{})
		fmt.Println(string(asJSON)) // Outputs: {}
		return
	}

	asJSON, _ := json.Marshal(transaction)
	fmt.Println(string(asJSON))
}

func analyzeOne(ctx context.Context, chain analyzer.Analyzer, path string) *common.Transaction {
	email, err := eml.ReadFile(path)
	if err != nil {
		log.Println("❌ could not read", path, ":", err)
		return nil
	}

	transaction, err := chain.AnalyzeEmail(ctx, email)
	if err != nil {
		log.Println("❌ analysis failed for", path, ":", err)
		return nil
	}
	return transaction
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringP("folder", "f", ".", "Folder in which winm will scan for .eml files")
	viper.BindPFlag("target", analyzeCmd.Flags().Lookup("folder"))
}
