// Command inspect dumps stored chat messages as a table, straight from the
// Badger store of a running (or stopped) server.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/fxamacker/cbor/v2"
	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
)

type diskMessage struct {
	ID        string  `cbor:"1,keyasint"`
	Content   string  `cbor:"2,keyasint"`
	AuthorID  string  `cbor:"3,keyasint"`
	ChannelID *string `cbor:"4,keyasint,omitempty"`
	At        int64   `cbor:"5,keyasint"`
}

func main() {
	dbPath := flag.String("db", "", "Path to badger DB")
	prefix := flag.String("prefix", "msg:", "Key prefix to scan")
	limit := flag.Int("limit", 100, "Maximum rows to print")
	flag.Parse()

	if *dbPath == "" {
		log.Fatal("Missing -db path")
	}

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	header := fmt.Sprintf("  ====== %s (prefix %q) ======", *dbPath, *prefix)
	fmt.Println(color.New(color.BgBlack, color.FgGreen).Render(header))

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "Room", "Author", "At", "Content"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)

	count := 0
	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		p := []byte(*prefix)
		for it.Seek(p); it.ValidForPrefix(p) && count < *limit; it.Next() {
			item := it.Item()
			key := string(item.Key())
			err := item.Value(func(val []byte) error {
				table.Append(rowFor(key, val))
				return nil
			})
			if err != nil {
				return err
			}
			count++
		}
		return nil
	})
	if err != nil {
		log.Fatal("Scan failed: ", err)
	}

	table.Render()
	fmt.Printf("%d rows\n", count)
}

// openDB opens the store read-only; BypassLockGuard allows inspecting while
// the server holds the lock.
func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithBypassLockGuard(true).
		WithLoggingLevel(badger.WARNING)
	return badger.Open(opts)
}

func rowFor(key string, val []byte) []string {
	// Key layout: msg:<room>:<padded-nanos>:<uuid>
	room := ""
	if parts := strings.SplitN(key, ":", 3); len(parts) >= 2 {
		room = parts[1]
	}

	var dm diskMessage
	if err := cbor.Unmarshal(val, &dm); err != nil {
		return []string{key, room, "?", "?", fmt.Sprintf("<%d bytes>", len(val))}
	}
	return []string{
		dm.ID,
		room,
		dm.AuthorID,
		time.Unix(0, dm.At).UTC().Format(time.RFC3339),
		dm.Content,
	}
}
