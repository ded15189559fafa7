package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"tripvault/internal/config"
	"tripvault/internal/database"
	"tripvault/internal/docstore"
	"tripvault/internal/models"
	"tripvault/internal/services"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const usage = `Usage: admin [flags] <command> [args]

Commands:
  list                              list every user with itineraries
  show <username>                   show one user's itineraries
  delete-user <username>            delete all itineraries of a user
  delete-itinerary <username> <id>  delete one itinerary

Flags:
`

func main() {
	output := flag.String("o", "table", "Output format: table, json or yaml")
	yes := flag.Bool("yes", false, "Skip the confirmation prompt for deletes")
	timeout := flag.Duration("timeout", 2*time.Minute, "Timeout for each store operation, not counting the prompt")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(args, *output, *timeout, !*yes); err != nil {
		log.Fatalf("❌ %v", err)
	}
}

// run owns every resource so deferred cleanup happens before main exits
func run(args []string, output string, timeout time.Duration, confirm bool) error {
	switch output {
	case outputTable, outputJSON, outputYAML:
	default:
		return fmt.Errorf("unknown output format %q", output)
	}

	_ = godotenv.Load()
	cfg := config.Load()
	if cfg.StoreBackend != config.StoreMongo || cfg.MongoURI == "" {
		return fmt.Errorf("MONGODB_URI is required")
	}

	db, err := database.NewMongoDB(cfg.MongoURI)
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = db.Close(ctx)
	}()

	store := docstore.NewMongoStore(db)
	itineraries := services.NewItineraryService(store)

	cli := &adminCLI{
		admin:    services.NewAdminService(store, itineraries),
		location: cfg.DisplayLocation,
		output:   output,
		confirm:  confirm,
		timeout:  timeout,
	}
	return cli.run(args)
}

const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

type adminCLI struct {
	admin    *services.AdminService
	location *time.Location
	output   string
	confirm  bool
	timeout  time.Duration
}

// opContext bounds one command's store work. Call it after any prompt.
func (c *adminCLI) opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), c.timeout)
}

func (c *adminCLI) run(args []string) error {
	switch args[0] {
	case "list":
		return c.list()
	case "show":
		if len(args) != 2 {
			return fmt.Errorf("usage: show <username>")
		}
		return c.show(args[1])
	case "delete-user":
		if len(args) != 2 {
			return fmt.Errorf("usage: delete-user <username>")
		}
		return c.deleteUser(args[1])
	case "delete-itinerary":
		if len(args) != 3 {
			return fmt.Errorf("usage: delete-itinerary <username> <id>")
		}
		return c.deleteItinerary(args[1], args[2])
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func (c *adminCLI) list() error {
	ctx, cancel := c.opContext()
	defer cancel()

	summaries, err := c.admin.ListAllUsers(ctx)
	if err != nil {
		return err
	}
	views := models.NewUserSummaryViews(summaries, c.location)
	if c.output != outputTable {
		return c.print(views)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "USERNAME\tITINERARIES\tLAST UPDATED")
	for _, v := range views {
		fmt.Fprintf(w, "%s\t%d\t%s\n", v.Username, v.ItineraryCount, v.LastUpdatedDisplay)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\n%d users\n", len(views))
	return nil
}

func (c *adminCLI) show(username string) error {
	ctx, cancel := c.opContext()
	defer cancel()

	summary, err := c.admin.GetUser(ctx, username)
	if err != nil {
		return err
	}
	view := models.NewUserSummaryView(*summary, c.location)
	if c.output != outputTable {
		return c.print(view)
	}

	fmt.Printf("👤 %s (%d itineraries, last updated %s)\n\n", view.Username, view.ItineraryCount, view.LastUpdatedDisplay)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tUPDATED")
	for _, it := range view.Itineraries {
		fmt.Fprintf(w, "%s\t%s\t%s\n", it.ID, it.Name, it.UpdatedAtDisplay)
	}
	return w.Flush()
}

func (c *adminCLI) deleteUser(username string) error {
	if !c.confirmed(fmt.Sprintf("Delete ALL itineraries of %q?", username)) {
		fmt.Println("Aborted")
		return nil
	}
	ctx, cancel := c.opContext()
	defer cancel()

	deleted, err := c.admin.DeleteUser(ctx, username)
	if err != nil {
		return err
	}
	if c.output != outputTable {
		return c.print(map[string]any{"username": username, "deleted": deleted})
	}
	fmt.Printf("🗑️  Deleted %d itineraries of %s\n", deleted, username)
	return nil
}

func (c *adminCLI) deleteItinerary(username, fileID string) error {
	if !c.confirmed(fmt.Sprintf("Delete itinerary %q of %q?", fileID, username)) {
		fmt.Println("Aborted")
		return nil
	}
	ctx, cancel := c.opContext()
	defer cancel()

	if err := c.admin.DeleteItinerary(ctx, username, fileID); err != nil {
		return err
	}
	if c.output == outputTable {
		fmt.Printf("🗑️  Deleted itinerary %s of %s\n", fileID, username)
	}
	return nil
}

func (c *adminCLI) confirmed(prompt string) bool {
	if !c.confirm {
		return true
	}
	fmt.Printf("%s [y/N]: ", prompt)
	answer, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

func (c *adminCLI) print(v any) error {
	if c.output == outputYAML {
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(v)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
