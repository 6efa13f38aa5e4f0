package main

import (
	"log"
	"net"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"librarydesk/internal/auth"
	"librarydesk/internal/config"
	"librarydesk/internal/database"
	"librarydesk/internal/handler"
	"librarydesk/internal/loan"
	"librarydesk/internal/notify"
	"librarydesk/internal/queue"
	"librarydesk/internal/repository"
	"librarydesk/internal/router"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()
	if err := database.EnsureSchema(db, cfg.SeedSampleRow); err != nil {
		log.Fatalf("ensure schema: %v", err)
	}

	books := &repository.BookRepo{DB: db}
	shelves := &repository.ShelfRepo{DB: db}
	copies := &repository.CopyRepo{DB: db}
	members := &repository.MemberRepo{DB: db}
	users := &repository.UserRepo{DB: db}
	loans := &repository.LoanRepo{DB: db}

	authenticator := auth.NewAuthenticator(users, members, cfg.QRSecret)

	// Redis is optional: with it sessions survive restarts and the
	// auth rate limiter is active, without it everything degrades to
	// in-process state.
	rdb := config.NewRedisClient()
	var sessions auth.Store = auth.NewMemoryStore()
	if rdb != nil {
		sessions = auth.NewRedisStore(rdb)
		log.Printf("sessions: redis store")
	} else {
		log.Printf("sessions: in-memory store")
	}

	hub := notify.NewHub()
	go hub.Run()

	engine := loan.NewEngine(db, members, copies, loans)

	if cfg.AMQPURL != "" {
		go queue.StartReceiptConsumer(cfg.AMQPURL, cfg.ReceiptsDir)
	}

	sweep, err := loan.StartOverdueSweep(engine, hub, cfg.OverdueCron)
	if err != nil {
		log.Fatalf("overdue sweep: %v", err)
	}
	defer sweep.Stop()

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())

	router.Register(e, router.Handlers{
		Auth:    handler.NewAuthHandler(authenticator, sessions, cfg.SessionTTL, hub),
		Books:   handler.NewBookHandler(books, copies),
		Shelves: handler.NewShelfHandler(shelves),
		Members: handler.NewMemberHandler(members, authenticator),
		Loans:   handler.NewLoanHandler(engine, loans, hub, cfg.AMQPURL),
		WS:      handler.NewWSHandler(hub),
	}, sessions, config.LoadRateLimitConfig(), rdb)

	// The desktop shell talks to the same API over a unix socket so it
	// never has to share the TCP port with the LAN kiosks.
	if cfg.IPCSocket != "" {
		go serveUnix(e, cfg.IPCSocket)
	}

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}

func serveUnix(h http.Handler, path string) {
	_ = os.Remove(path)
	l, err := net.Listen("unix", path)
	if err != nil {
		log.Printf("unix listener: %v", err)
		return
	}
	log.Printf("listening on unix socket %s", path)
	if err := http.Serve(l, h); err != nil {
		log.Printf("unix listener closed: %v", err)
	}
}
