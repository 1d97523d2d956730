package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wagebud/wagebud/internal/config"
	"github.com/wagebud/wagebud/internal/profile"
)

// --- ask ---

type turnResult struct {
	Status        string          `json:"status"`
	Message       string          `json:"message"`
	PredictedWage *float64        `json:"predictedWage"`
	Explanation   string          `json:"explanation"`
	KeyFactors    []string        `json:"keyFactors"`
	Language      string          `json:"language"`
	SessionID     string          `json:"sessionId"`
	Structured    json.RawMessage `json:"structuredData"`
}

var askCmd = &cobra.Command{
	Use:   "ask <text>",
	Short: "Send one conversational turn to the wage estimator",
	Long: `Send one conversational turn to the wage estimator.

Examples:
  wagebud ask "I'm a 30 year old software engineer in Germany"
  wagebud ask --session 3f2a... "I have a master's degree"
  wagebud ask --state profile.json "What would I earn?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.Join(args, " ")
		sessionID, _ := cmd.Flags().GetString("session")
		statePath, _ := cmd.Flags().GetString("state")
		asJSON, _ := cmd.Flags().GetBool("json")

		req := map[string]any{"text": text}
		if sessionID != "" {
			req["sessionId"] = sessionID
		}
		if statePath != "" {
			data, err := os.ReadFile(statePath)
			if err != nil {
				return fmt.Errorf("reading state file: %w", err)
			}
			var p profile.Profile
			if err := json.Unmarshal(data, &p); err != nil {
				return fmt.Errorf("invalid state file: %w", err)
			}
			req["currentState"] = p
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/v1/turns", req)
		if err != nil {
			return err
		}

		var result turnResult
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		}

		fmt.Println(result.Message)
		if result.Status == "success" && result.Explanation != "" {
			fmt.Printf("\n%s\n", result.Explanation)
			for i, f := range result.KeyFactors {
				fmt.Printf("  %d. %s\n", i+1, f)
			}
		}
		if result.Status == "need_more_info" && result.SessionID != "" {
			printStep("continue with: wagebud ask --session %s \"...\"", result.SessionID)
		}
		return nil
	},
}

func init() {
	askCmd.Flags().String("session", "", "session id from a previous turn")
	askCmd.Flags().String("state", "", "path to a profile JSON file to use as current state")
	askCmd.Flags().Bool("json", false, "print the raw response as JSON")
}

// --- session ---

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Inspect or reset conversation sessions",
}

var sessionShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a session's accumulated profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/v1/sessions/"+args[0])
		if err != nil {
			return err
		}

		var sess any
		if err := decodeJSON(resp, &sess); err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(sess)
	},
}

var sessionResetCmd = &cobra.Command{
	Use:   "reset <id>",
	Short: "Discard a session's accumulated profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.delete(cmd.Context(), "/v1/sessions/"+args[0])
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 400 {
			return fmt.Errorf("server returned %d", resp.StatusCode)
		}

		printSuccess("Session %s reset", args[0])
		return nil
	},
}

func init() {
	sessionCmd.AddCommand(sessionShowCmd)
	sessionCmd.AddCommand(sessionResetCmd)
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		for _, ki := range config.ShowAll(cfg) {
			printStatus(ki.Key, "%s", ki.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration key",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.SetKey(args[0], args[1]); err != nil {
			return fmt.Errorf("%w (valid keys: %s)", err, strings.Join(config.ValidKeys(), ", "))
		}
		printSuccess("Set %s = %s", args[0], args[1])
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
