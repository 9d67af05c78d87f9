package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"

	"github.com/akamensky/argparse"
	"github.com/cyclopcam/logs"
	"github.com/cyclopcam/pairedped/pkg/annot"
	"github.com/cyclopcam/pairedped/pkg/dataset"
	"github.com/cyclopcam/pairedped/pkg/render"
	"github.com/cyclopcam/pairedped/pkg/summary"
	"github.com/cyclopcam/pairedped/server"
	"github.com/cyclopcam/pairedped/server/exportdb"
)

func check(err error) {
	if err != nil {
		panic(err)
	}
}

func printJSON(v any) {
	b, err := json.MarshalIndent(v, "", "  ")
	check(err)
	fmt.Println(string(b))
}

func main() {
	parser := argparse.NewParser("pairedped", "Paired visible/thermal pedestrian dataset tools")
	configFile := parser.String("c", "config", &argparse.Options{Help: "Config file path", Default: "pairedped.json"})

	serveCmd := parser.NewCommand("serve", "Serve the dataset over HTTP")
	listen := serveCmd.String("l", "listen", &argparse.Options{Help: "HTTP listen address (overrides the config file)", Default: ""})

	exportCmd := parser.NewCommand("export", "Write the canonical labels of a split into the export database")
	exportSplit := exportCmd.String("s", "split", &argparse.Options{Help: "Split name", Required: true})

	drawCmd := parser.NewCommand("draw", "Draw the canonical boxes of a frame into a PNG")
	drawSplit := drawCmd.String("s", "split", &argparse.Options{Help: "Split name", Required: true})
	drawIndex := drawCmd.Int("i", "index", &argparse.Options{Help: "Frame index", Required: true})
	drawOutput := drawCmd.String("o", "output", &argparse.Options{Help: "Output PNG file", Default: "frame.png"})

	summaryCmd := parser.NewCommand("summary", "Print label statistics of a split")
	summarySplit := summaryCmd.String("s", "split", &argparse.Options{Help: "Split name", Required: true})

	err := parser.Parse(os.Args)
	if err != nil {
		fmt.Print(parser.Usage(err))
		os.Exit(1)
	}

	logger, err := logs.NewLog()
	check(err)
	cfg, err := server.LoadConfig(*configFile)
	check(err)

	if serveCmd.Happened() {
		s, err := server.NewServer(logger, cfg)
		check(err)
		s.ListenForKillSignals()
		addr := cfg.Listen
		if *listen != "" {
			addr = *listen
		}
		if addr == "" {
			addr = ":8090"
		}
		if err := s.ListenHTTP(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Printf("%v\n", err)
			os.Exit(1)
		}
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	openSplit := func(name string) *dataset.Dataset {
		store, err := server.OpenStorage(logger, cfg.DatasetStorage)
		check(err)
		ds, err := cfg.OpenSplit(logger, store, name, nil)
		check(err)
		return ds
	}

	switch {
	case exportCmd.Happened():
		ds := openSplit(*exportSplit)
		db, err := exportdb.Open(logger, cfg.DB)
		check(err)
		defer db.Close()
		run, err := server.Export(ctx, logger, db, ds, *exportSplit, cfg.NumWorkers())
		check(err)
		printJSON(run)
	case drawCmd.Happened():
		ds := openSplit(*drawSplit)
		sample, err := ds.Get(*drawIndex)
		check(err)
		img, err := render.Sample(sample)
		check(err)
		check(render.SavePNG(*drawOutput, img))
		logger.Infof("Frame %v (%v, %v objects) written to %v", sample.Key, sample.Pairing, annot.CountObjects(sample.Rows), *drawOutput)
	case summaryCmd.Happened():
		ds := openSplit(*summarySplit)
		sum, err := summary.Collect(ctx, ds, cfg.NumWorkers())
		check(err)
		printJSON(sum)
	}
}
