package main

import (
	"bytes"
	"context"
	"html/template"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	arg "github.com/alexflint/go-arg"
	"github.com/joho/godotenv"
	"github.com/n0madic/unachat"
	"github.com/n0madic/unachat/config"
	_ "github.com/n0madic/unachat/endpoints"
	"github.com/rs/cors"
	log "github.com/sirupsen/logrus"
)

const shutdownTimeout = 5 * time.Second

type args struct {
	Config   string `arg:"-c,env:CONFIG" help:"config file, built-in defaults when empty"`
	Port     string `arg:"-p,env:PORT" help:"listen port, overrides bind from config"`
	LogLevel string `arg:"-l,--log-level,env:LOG_LEVEL" help:"log level"`
}

func (args) Description() string {
	return "unachat - chat server rendering safe rich text"
}

type page struct {
	Socket    string
	Feeds     []string
	MaxLength int
}

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warnf("Can't load .env: %v", err)
	}

	opts := args{LogLevel: "info"}
	arg.MustParse(&opts)

	level, err := log.ParseLevel(opts.LogLevel)
	if err != nil {
		log.Fatalf("Bad log level: %v", err)
	}
	log.SetLevel(level)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	cfg, err := config.New(opts.Config)
	if err != nil {
		log.Fatalf("Can't load config: %v", err)
	}
	if opts.Port != "" {
		cfg.Bind = ":" + opts.Port
	}

	endpoints, err := cfg.CreateEndpoints()
	if err != nil {
		log.Fatal(err)
	}

	index := page{MaxLength: cfg.MaxMessageLength}
	mux := http.NewServeMux()
	for i, endpoint := range endpoints {
		pattern := endpoint.Pattern()
		if pattern == "" {
			continue
		}
		switch cfg.Endpoints[i].Type {
		case "websocket":
			if index.Socket == "" {
				index.Socket = pattern
			}
		case "rss":
			index.Feeds = append(index.Feeds, pattern)
		}
		mux.HandleFunc(pattern, endpoint.Handler)
	}
	mux.HandleFunc("/", indexHandler(index))

	handler := cors.New(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
	}).Handler(mux)

	server := &http.Server{Addr: cfg.Bind, Handler: handler}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()
	log.WithField("bind", cfg.Bind).Info("Server started")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Info("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	for _, endpoint := range endpoints {
		if closer, ok := endpoint.(io.Closer); ok {
			closer.Close()
		}
	}
	if err := server.Shutdown(ctx); err != nil {
		log.Errorf("Shutdown: %v", err)
	}
	unachat.WaitGroup.Wait()
}

func indexHandler(index page) http.HandlerFunc {
	t := template.Must(template.New("index").Parse(indexTpl))
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		var tpl bytes.Buffer
		err := t.Execute(&tpl, index)
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(err.Error()))
		} else {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Write(tpl.Bytes())
		}
	}
}
