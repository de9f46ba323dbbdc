package main

import (
	"bufio"
	"flag"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"riskgate/internal/journal"
	"riskgate/internal/message"
	"riskgate/internal/schema"
	"riskgate/internal/wire"
)

// Offline journal inspection: walks a data directory in replay order and
// prints what a restart would feed into the engine.
func main() {
	dir := flag.String("dir", "", "Journal data directory")
	flag.Parse()

	if *dir == "" {
		log.Fatal("missing -dir")
	}

	entries, err := os.ReadDir(*dir)
	if err != nil {
		log.Fatalf("read dir failed: %v", err)
	}
	var files []string
	for _, entry := range entries {
		if entry.Type().IsRegular() && strings.HasSuffix(entry.Name(), journal.FileSuffix) {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	kinds := make(map[string]int)
	symbols := make(map[schema.Symbol]int)
	users := make(map[schema.UserID]int)
	total := 0

	for _, name := range files {
		path := filepath.Join(*dir, name)
		file, err := os.Open(path)
		if err != nil {
			log.Printf("open %s failed: %v", path, err)
			continue
		}
		n := 0
		sc := bufio.NewScanner(file)
		for sc.Scan() {
			attrs := wire.ParseRecord(sc.Text())
			if len(attrs) < 2 {
				continue
			}
			msg := message.New(attrs)
			kinds[msg.Kind()]++
			switch msg.Kind() {
			case schema.KindQuote:
				symbols[schema.ParseQuote(msg).Symbol]++
			case schema.KindTrade:
				users[schema.ParseTrade(msg).UserID]++
			}
			n++
		}
		if err := sc.Err(); err != nil {
			log.Printf("scan %s failed: %v", path, err)
		}
		_ = file.Close()
		log.Printf("%s: %d records", name, n)
		total += n
	}

	log.Printf("total=%d kinds=%v symbols=%d traders=%d", total, kinds, len(symbols), len(users))
}
