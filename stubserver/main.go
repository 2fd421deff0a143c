// Command stubserver serves a scripted POST /v1/messages endpoint for exercising toolcheck offline.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/rweb"
	"toolcheck/platform/shutdown"
)

func main() {
	var (
		addr     = flag.String("addr", ":19080", "Listen address")
		scenario = flag.String("scenario", string(ScenarioHappy), "Reply scenario")
		verbose  = flag.Bool("verbose", false, "Enable verbose logging")
	)
	flag.Parse()

	if *verbose {
		logger.SetLogLevel("debug")
	}

	sc, err := ParseScenario(*scenario)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	stub := NewStub(sc)

	svc := shutdown.New(5 * time.Second)
	stub.stopping = svc.Stopping
	svc.RegisterHook(func(time.Duration) error {
		logger.Info("Stub server stopping", "scenario", string(sc), "served", stub.Served())
		return nil
	})
	done := make(chan struct{})
	svc.Listen(done)

	s := newServer(stub, *addr, *verbose)
	go func() {
		logger.Info("Starting stub messages server", "addr", *addr, "scenario", string(sc))
		if err := s.Run(); err != nil {
			logger.LogErr(err, "stub server stopped")
			os.Exit(1)
		}
	}()

	<-done
}

// newServer routes the messages endpoint and the status page to stub
func newServer(stub *Stub, addr string, verbose bool) *rweb.Server {
	s := rweb.NewServer(rweb.ServerOptions{
		Address: addr,
		Verbose: verbose,
	})
	s.Use(rweb.RequestInfo)
	s.Post("/v1/messages", stub.messagesHandler)
	s.Get("/", stub.statusHandler)
	return s
}

// messagesHandler answers POST /v1/messages from the scenario script
func (st *Stub) messagesHandler(ctx rweb.Context) error {
	r := st.Reply(ctx.Request().Body())
	logger.Debug("Stub reply", "status", r.status, "body", string(r.body))

	ctx.Status(r.status)
	ctx.Response().SetHeader("Content-Type", r.contentType)
	return ctx.Bytes(r.body)
}

// statusHandler serves the HTML status page
func (st *Stub) statusHandler(ctx rweb.Context) error {
	return ctx.WriteHTML(st.statusPage())
}
