package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kalambet/outreach/internal/chunk"
	"github.com/kalambet/outreach/internal/compose"
	"github.com/kalambet/outreach/internal/config"
	"github.com/kalambet/outreach/internal/history"
	"github.com/kalambet/outreach/internal/render"
	"github.com/kalambet/outreach/internal/session"
)

func serverClient() (*apiClient, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return newAPIClient(cfg.Server.Port), nil
}

// --- chunks ---

var chunksCmd = &cobra.Command{
	Use:   "chunks",
	Short: "Manage the reusable text chunk collection",
}

var chunksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all chunks",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := serverClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/api/chunks")
		if err != nil {
			return err
		}

		var chunks []chunk.Chunk
		if err := decodeJSON(resp, &chunks); err != nil {
			return err
		}

		if len(chunks) == 0 {
			fmt.Println("No chunks found.")
			return nil
		}

		for _, c := range chunks {
			text := c.Text
			if len(text) > 80 {
				text = text[:80] + "..."
			}
			fmt.Printf("%s  %s  %s\n",
				colorize(colorCyan, strconv.FormatInt(c.ID, 10)),
				colorize(colorBold, c.Category),
				text,
			)
		}
		return nil
	},
}

var chunksAddCmd = &cobra.Command{
	Use:   "add <text>",
	Short: "Add a chunk to the collection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		category, _ := cmd.Flags().GetString("category")
		if category == "" {
			category = chunk.DefaultCategory
		}

		client, err := serverClient()
		if err != nil {
			return err
		}

		// The API writes the collection wholesale, so adding means
		// fetch, append, replace.
		resp, err := client.get(cmd.Context(), "/api/chunks")
		if err != nil {
			return err
		}
		var chunks []chunk.Chunk
		if err := decodeJSON(resp, &chunks); err != nil {
			return err
		}

		c := chunk.Chunk{ID: time.Now().UnixMilli(), Text: args[0], Category: category}
		chunks = append(chunks, c)

		postResp, err := client.post(cmd.Context(), "/api/chunks", chunks)
		if err != nil {
			return err
		}
		var result map[string]bool
		if err := decodeJSON(postResp, &result); err != nil {
			return err
		}

		printSuccess("Added chunk %d in category %q", c.ID, c.Category)
		return nil
	},
}

var chunksDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a chunk by id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid chunk id %q", args[0])
		}

		client, err := serverClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/api/chunks")
		if err != nil {
			return err
		}
		var chunks []chunk.Chunk
		if err := decodeJSON(resp, &chunks); err != nil {
			return err
		}

		next := make([]chunk.Chunk, 0, len(chunks))
		found := false
		for _, c := range chunks {
			if c.ID == id {
				found = true
				continue
			}
			next = append(next, c)
		}
		if !found {
			printError("no chunk with id %d", id)
			return fmt.Errorf("chunk %d not found", id)
		}

		postResp, err := client.post(cmd.Context(), "/api/chunks", next)
		if err != nil {
			return err
		}
		var result map[string]bool
		if err := decodeJSON(postResp, &result); err != nil {
			return err
		}

		printSuccess("Deleted chunk %d", id)
		return nil
	},
}

func init() {
	chunksAddCmd.Flags().String("category", "", "category for the chunk (default \"Default\")")
	chunksCmd.AddCommand(chunksListCmd)
	chunksCmd.AddCommand(chunksAddCmd)
	chunksCmd.AddCommand(chunksDeleteCmd)
}

// --- compose ---

func closingFromConfig(cfg config.Config) compose.Closing {
	return compose.Closing{
		CourseTitle:  cfg.Compose.CourseTitle,
		CourseURL:    cfg.Compose.CourseURL,
		BookingLabel: cfg.Compose.BookingLabel,
		BookingURL:   cfg.Compose.BookingURL,
		SignOff:      cfg.Compose.SignOff,
	}
}

type composeOptions struct {
	form     compose.FormSnapshot
	periods  []string
	search   string
	category string
	format   string
}

// composeOutput runs a full editing session over the local chunk file:
// form in, periods toggled in order, filter applied, then the requested
// export form out. Composition needs no running server.
func composeOutput(cfg config.Config, opts composeOptions) (string, error) {
	store := chunk.NewFileStore(cfg.Storage.ChunkFile)
	repo := chunk.NewRepository(store)
	if err := repo.Refresh(); err != nil {
		printWarning("loading chunks from %s: %v (composing without chunks)", store.Path(), err)
	}

	s := session.New(repo, compose.New(closingFromConfig(cfg)))
	s.SetForm(opts.form)
	for _, p := range opts.periods {
		s.TogglePeriod(p)
	}
	s.SetSearch(opts.search)
	s.SetCategory(opts.category)

	switch opts.format {
	case "text":
		return s.Message(), nil
	case "html":
		return s.HTML(), nil
	case "markdown":
		return s.Markdown(), nil
	case "document":
		return render.HTMLDocument(s.Message()), nil
	case "clipboard":
		data, err := json.MarshalIndent(s.Clipboard(), "", "  ")
		if err != nil {
			return "", err
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("invalid format %q: want text, html, markdown, document, or clipboard", opts.format)
	}
}

var composeCmd = &cobra.Command{
	Use:   "compose",
	Short: "Compose an outreach message",
	Long: `Compose an outreach message from form fields and the chunk collection.

Examples:
  outreach compose --contact Mary --company Acme --job-title "ML Intern"
  outreach compose --contact Mary --period "Jul–Sep" --period "Oct–Dec" --format markdown
  outreach compose --contact Mary --format document > message.html`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		contact, _ := cmd.Flags().GetString("contact")
		company, _ := cmd.Flags().GetString("company")
		jobTitle, _ := cmd.Flags().GetString("job-title")
		jobLink, _ := cmd.Flags().GetString("job-link")
		student, _ := cmd.Flags().GetString("student")
		project, _ := cmd.Flags().GetString("project")
		pitch, _ := cmd.Flags().GetString("pitch")
		periods, _ := cmd.Flags().GetStringSlice("period")
		search, _ := cmd.Flags().GetString("search")
		category, _ := cmd.Flags().GetString("category")
		format, _ := cmd.Flags().GetString("format")

		out, err := composeOutput(cfg, composeOptions{
			form: compose.FormSnapshot{
				ContactName:  contact,
				CompanyName:  company,
				JobTitle:     jobTitle,
				JobLink:      jobLink,
				StudentName:  student,
				ProjectTitle: project,
				StudentPitch: pitch,
			},
			periods:  periods,
			search:   search,
			category: category,
			format:   format,
		})
		if err != nil {
			return err
		}

		fmt.Println(out)
		return nil
	},
}

func init() {
	composeCmd.Flags().String("contact", "", "recipient's name")
	composeCmd.Flags().String("company", "", "recipient's company")
	composeCmd.Flags().String("job-title", "", "the role being discussed")
	composeCmd.Flags().String("job-link", "", "URL of the job listing")
	composeCmd.Flags().String("student", "", "the student's name")
	composeCmd.Flags().String("project", "", "a project the student worked on")
	composeCmd.Flags().String("pitch", "", "a short sentence pitching the student")
	composeCmd.Flags().StringSlice("period", nil, "proposed internship period (repeatable)")
	composeCmd.Flags().String("search", "", "chunk text filter")
	composeCmd.Flags().String("category", "", "chunk category filter")
	composeCmd.Flags().String("format", "text", "output format: text, html, markdown, document, or clipboard")
}

// --- history ---

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse archived transform runs",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent transform runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		client, err := serverClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), fmt.Sprintf("/history?limit=%d", limit))
		if err != nil {
			return err
		}

		var records []history.Record
		if err := decodeJSON(resp, &records); err != nil {
			return err
		}

		if len(records) == 0 {
			fmt.Println("No history found.")
			return nil
		}

		for _, rec := range records {
			kind := rec.Kind
			if rec.Fallback {
				kind += " (fallback)"
			}
			input := rec.Input
			if len(input) > 60 {
				input = input[:60] + "..."
			}
			fmt.Printf("%s  %s  %-22s %s\n",
				colorize(colorCyan, shortID(rec.ID)),
				rec.CreatedAt.Format(time.RFC3339),
				kind,
				input,
			)
		}
		return nil
	},
}

// shortID abbreviates record ids for list output. Ids are normally UUIDs,
// but anything shorter passes through unchanged.
func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a single transform run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := serverClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/history/"+args[0])
		if err != nil {
			return err
		}

		var record any
		if err := decodeJSON(resp, &record); err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(record)
	},
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a transform run from the archive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := serverClient()
		if err != nil {
			return err
		}

		resp, err := client.delete(cmd.Context(), "/history/"+args[0])
		if err != nil {
			return err
		}
		var result map[string]bool
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSuccess("Deleted history record %s", args[0])
		return nil
	},
}

func init() {
	historyListCmd.Flags().Int("limit", 20, "maximum number of records to list")
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyDeleteCmd)
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		keys := config.ShowAll(cfg)
		for _, k := range keys {
			fmt.Printf("  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			printWarning("valid keys: %s", strings.Join(config.ValidKeys(), ", "))
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
