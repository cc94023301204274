// ABOUTME: Maintenance CLI and composition root for the WNDR datastore
// ABOUTME: Wires config into the store; lists domains/scopes, inspects, deletes

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/GitAcrown/WNDR/internal/config"
	"github.com/GitAcrown/WNDR/internal/datastore"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := loadConfig()
	if err == nil {
		err = run(cfg, os.Stdout, os.Args[1], os.Args[2:])
	}
	if err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

// loadConfig reads the file named by WNDR_CONFIG, falling back to
// ./config.yaml, falling back to defaults when neither exists.
func loadConfig() (*config.Config, error) {
	path := os.Getenv("WNDR_CONFIG")
	if path == "" {
		path = "config.yaml"
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return config.Default(), nil
		}
	}
	return config.Load(path)
}

// run opens the store from the configuration and dispatches one command.
func run(cfg *config.Config, out io.Writer, cmd string, args []string) error {
	store, err := datastore.Open(cfg.Data.Root, datastore.WithLogger(cfg.NewLogger()))
	if err != nil {
		return err
	}
	defer store.CloseAll()

	switch cmd {
	case "domains":
		return cmdDomains(store, out)
	case "scopes":
		if len(args) != 1 {
			return fmt.Errorf("usage: wndr-data scopes <domain>")
		}
		return cmdScopes(store, out, args[0])
	case "tables":
		if len(args) != 2 {
			return fmt.Errorf("usage: wndr-data tables <domain> <scope>")
		}
		return cmdTables(store, out, args[0], args[1])
	case "delete":
		if len(args) != 2 {
			return fmt.Errorf("usage: wndr-data delete <domain> <scope>")
		}
		return cmdDelete(store, out, args[0], args[1])
	case "help", "-h", "--help":
		printUsage()
		return nil
	default:
		printUsage()
		return fmt.Errorf("unknown command: %s", cmd)
	}
}

// cmdDomains lists the domain directories under the store root.
func cmdDomains(store *datastore.Store, out io.Writer) error {
	entries, err := os.ReadDir(store.Root())
	if err != nil {
		return fmt.Errorf("reading store root: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() && entry.Name() != "resources" {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintln(out, name)
	}
	return nil
}

// cmdScopes lists the scope keys that have a database file in the domain.
func cmdScopes(store *datastore.Store, out io.Writer, domainName string) error {
	domain, err := store.Domain(domainName)
	if err != nil {
		return err
	}

	paths, err := filepath.Glob(filepath.Join(domain.Dir(), "data", "*.db"))
	if err != nil {
		return fmt.Errorf("listing scope databases: %w", err)
	}
	sort.Strings(paths)
	for _, path := range paths {
		fmt.Fprintln(out, strings.TrimSuffix(filepath.Base(path), ".db"))
	}
	return nil
}

// cmdTables prints the tables of one scope database. The scope argument is
// the storage key as shown by the scopes command.
func cmdTables(store *datastore.Store, out io.Writer, domainName, scope string) error {
	domain, err := store.Domain(domainName)
	if err != nil {
		return err
	}
	if err := requireScopeFile(domain, scope); err != nil {
		return err
	}

	conn, err := domain.Get(context.Background(), datastore.NamedScope(scope))
	if err != nil {
		return err
	}
	tables, err := conn.Tables(context.Background())
	if err != nil {
		return err
	}
	for _, table := range tables {
		fmt.Fprintln(out, table)
	}
	return nil
}

// cmdDelete removes one scope database from a domain.
func cmdDelete(store *datastore.Store, out io.Writer, domainName, scope string) error {
	domain, err := store.Domain(domainName)
	if err != nil {
		return err
	}
	if err := requireScopeFile(domain, scope); err != nil {
		return err
	}

	if err := domain.Delete(datastore.NamedScope(scope)); err != nil {
		return err
	}
	fmt.Fprintf(out, "deleted %s/%s\n", domain.Name(), datastore.NamedScope(scope).Key())
	return nil
}

// requireScopeFile fails when the scope has no database file, so inspection
// commands never create one as a side effect.
func requireScopeFile(domain *datastore.Domain, scope string) error {
	key := datastore.NamedScope(scope).Key()
	path := filepath.Join(domain.Dir(), "data", key+".db")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("no database for scope %q in domain %s", key, domain.Name())
	}
	return nil
}

func printUsage() {
	yellow := color.New(color.FgYellow)

	fmt.Println("Usage: wndr-data <command> [args]")
	fmt.Println()
	yellow.Println("Commands:")
	fmt.Println("  domains                   List domains under the store root")
	fmt.Println("  scopes <domain>           List scope databases of a domain")
	fmt.Println("  tables <domain> <scope>   List tables of one scope database")
	fmt.Println("  delete <domain> <scope>   Delete one scope database")
	fmt.Println()
	yellow.Println("Environment:")
	fmt.Println("  WNDR_CONFIG               Config file path (default: ./config.yaml)")
}
