package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sljesus/winm/analyzer"
	"github.com/sljesus/winm/integrations/gemini"
)

// Embedded default configuration. Every pattern the pipeline matches
// against lives here as data, so tuning a provider means editing a
// .winm.yaml, not rebuilding the binary.
const defaultConfigYAML = `
pipeline:
  keywords: [compra, pago, cargo, abono, transferencia, retiro, deposito, transaccion, movimiento]
  amount:
    max_value: 10000000
    patterns:
      keyword_adjacent: '(?i)(?:recibiste|pagaste|pago|cargo|abono|monto|total|importe)\D{0,25}?\$?\s*([0-9][0-9,]*(?:\.[0-9]{1,2})?)'
      currency_symbol: '\$\s*([\d,]+\.?\d*)'
      currency_word: '([\d,]+\.?\d*)\s*(?:MXN|pesos|peso)'
      symbol_loose: '\$\s*([\d.,]+)'
      grouped_number: '(\d{1,3}(?:,\d{3})+(?:\.\d{1,2})?|\d{3,}(?:\.\d{1,2})?)'
      small_decimal: '(\d+\.\d{2})'
  date:
    patterns:
      day_first: '(\d{1,2})[/-](\d{1,2})[/-](\d{4})'
      year_first: '(\d{4})[/-](\d{1,2})[/-](\d{1,2})'
transaction:
  types:
    compra: [compra, cargo, pago, gasto]
    ingreso: [ingreso, abono, deposito, recibiste]
    retiro: [retiro, retiraste, sacar]
    transferencia: [transferencia, transferiste]
providers:
  bbva:
    domains: [bbva.com, bbva.com.mx]
    include: [cargo, abono, compra, pago, retiro, transferencia]
    exclude: [promocion, promoción, oferta, publicidad, newsletter]
    expense: [cargo, compra, pago]
    withdrawal: [retiro, retiraste, cajero]
    description_patterns:
      - '(?i)(?:Compra|Pago|Retiro|Transferencia)\s+(?:en|a|de)\s+([^\n\.]+)'
      - '(?i)Concepto[:\s]+([^\n\.]+)'
      - '(?i)Descripción[:\s]+([^\n\.]+)'
    prefix: '(?i)\b(?:BBVA|Notificación|Aviso)\b[:\s]*'
    fallback: 'Transacción BBVA'
  mercadopago:
    domains: [mercadopago.com, mercadopago.com.mx, mercadolibre.com.mx]
    include: [compra, pago, recibiste, pagaste, transacción]
    exclude: [promoción, oferta, publicidad, newsletter, sorteo]
    income: [recibiste, ingreso, te pagaron]
    expense: [compra, pago, pagaste]
    description_patterns:
      - '(?i)(?:Compra|Pago)\s+(?:en|a|de)\s+([^\n\.]+)'
      - '(?i)Concepto[:\s]+([^\n\.]+)'
      - '(?i)Descripción[:\s]+([^\n\.]+)'
      - '(?i)([A-Z][^\.\n]{10,50})'
    prefix: '(?i)\b(?:Mercado Pago|MP|Notificación)\b[:\s]*'
    fallback: 'Transacción Mercado Pago'
  nu:
    domains: [nu.com.mx, nu.com]
    include: [compra, pago, cargo, recibiste, transacción]
    exclude: [promoción, oferta, publicidad, newsletter, invitación]
    income: [recibiste, ingreso, abono]
    expense: [compra, cargo, pago, pagaste]
    description_patterns:
      - '(?i)(?:Compra|Pago)\s+(?:en|a|de)\s+([^\n\.]+)'
      - '(?i)Concepto[:\s]+([^\n\.]+)'
      - '(?i)([A-Z][^\.\n]{10,50})'
    prefix: '(?i)\b(?:NU|Notificación)\b[:\s]*'
    fallback: 'Transacción NU'
  platacard:
    domains: [plata.com.mx, plata.com]
    include: [compra, pago, cargo, recibiste, transacción]
    exclude: [promoción, oferta, publicidad, newsletter]
    description_patterns:
      - '(?i)(?:Compra|Pago)\s+(?:en|a|de)\s+([^\n\.]+)'
      - '(?i)Concepto[:\s]+([^\n\.]+)'
    prefix: '(?i)\b(?:Plata|Notificación)\b[:\s]*'
    fallback: 'Transacción Plata Card'
analyzer:
  use_regex: true
  use_ai: true
  min_ai_confidence: 0.8
gemini:
  model: gemini-2.5-flash
  temperature: 0.1
  max_tokens: 1024
gmail:
  days_back: 7
  max_results: 100`

var (
	cfgFile string
	verbose bool
	rootCmd = &cobra.Command{
		Use:   "winm [path]",
		Short: "Extract transactions from bank notification emails",
		Long: `winm turns bank and wallet notification emails into structured
transactions, using per-provider regex parsers with an optional
Gemini-backed fallback for senders the parsers do not know.`,
		Args: cobra.ArbitraryArgs,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) == 1 {
				viper.Set("target", args[0])
				analyzeHandler(analyzeCmd, []string{})
				return
			}
			cmd.Help()
		},
	}
)

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig, initLogging)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default is ./.winm.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

func initLogging() {
	if !verbose {
		log.SetOutput(io.Discard)
	} else {
		log.SetFlags(log.Ltime | log.Lmsgprefix)
		log.SetPrefix("INFO: ")
	}
}

func initConfig() {
	// Credentials (Gmail token, Gemini key, DATABASE_URL) usually live in
	// a .env next to the binary.
	godotenv.Load()

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Search for config in current directory and home directory
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Add config paths in order of priority
		viper.AddConfigPath(".")  // First check current directory
		viper.AddConfigPath(home) // Then check home directory
		viper.SetConfigName(".winm")
		viper.SetConfigType("yaml")
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// No config file found, use embedded default configuration
			if err := viper.ReadConfig(bytes.NewBufferString(defaultConfigYAML)); err != nil {
				fmt.Printf("Error loading embedded configuration: %v\n", err)
				os.Exit(1)
			}
		} else {
			fmt.Printf("Error reading config file: %v\n", err)
			os.Exit(1)
		}
	}
}

// buildAnalyzer assembles the analyzer chain the config asks for,
// attaching the Gemini client when a credential is available. Without a
// credential a mixed chain still works on the regex side.
func buildAnalyzer(ctx context.Context, categories analyzer.CategorySource) (analyzer.Analyzer, error) {
	cfg := analyzer.FromViper()

	var generator analyzer.TextGenerator
	if cfg.UseAI {
		if gemini.HasCredential() {
			client, err := gemini.New(ctx)
			if err != nil {
				return nil, err
			}
			generator = client
		} else {
			log.Println("⚠️ no Gemini credential, falling back to regex parsing only")
		}
	}

	return analyzer.New(cfg, generator, categories)
}
