package main

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"

	"github.com/ShroXd/venom"
	"github.com/ShroXd/venom/internal/spider"
)

// Profiles a crawl of the mock server started by cmd/mockserver.
func main() {
	go func() {
		http.ListenAndServe("localhost:6060", nil)
	}()

	runtime.SetBlockProfileRate(1)
	runtime.SetMutexProfileFraction(1)
	startCPUProfile()
	defer stopCPUProfile()

	if err := work(); err != nil {
		fmt.Println("Error: ", err)
	}

	writeProfile("mem", "out/mem.pprof")
	writeProfile("block", "out/block.pprof")
	writeProfile("goroutine", "out/goroutine.pprof")
	writeProfile("threadcreate", "out/threadcreate.pprof")
	writeProfile("mutex", "out/mutex.pprof")
}

func work() error {
	cfg := &spider.Config{
		StartURL: "http://localhost:6657/articles",
		Links:    "a.article@href",
		Fields: map[string]string{
			"title":  "h1.title",
			"author": "span.author",
		},
	}

	engine, err := venom.New(
		venom.WithName("dev"),
		venom.WithItemConsumer(func(item interface{}) error {
			fmt.Println("Item: ", item)
			return nil
		}),
	)
	if err != nil {
		return err
	}

	start := spider.NewDefinitions(cfg).AsFunc(engine.Spider(), nil, cfg.StartFields())
	return engine.Run(context.Background(), start)
}

func startCPUProfile() {
	f, err := createFileWithDir("out/cpu.pprof")
	if err != nil {
		panic(err)
	}
	pprof.StartCPUProfile(f)
}

func stopCPUProfile() {
	pprof.StopCPUProfile()
}

func writeProfile(name, filePath string) {
	f, err := createFileWithDir(filePath)
	if err != nil {
		fmt.Println("Error: ", err)
		return
	}
	defer f.Close()

	if name == "mem" {
		pprof.WriteHeapProfile(f)
		return
	}
	pprof.Lookup(name).WriteTo(f, 0)
}

func createFileWithDir(filePath string) (*os.File, error) {
	dirPath := filepath.Dir(filePath)
	if err := os.MkdirAll(dirPath, os.ModePerm); err != nil {
		return nil, err
	}

	file, err := os.Create(filePath)
	if err != nil {
		return nil, err
	}

	return file, nil
}
