package main

import (
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/voiceroll/voiceroll/internal/devstub"
	"github.com/voiceroll/voiceroll/internal/logging"
)

func main() {

	addr := flag.String("addr", ":8000", "listen address")
	secret := flag.String("secret", "devstub-secret", "token signing secret")
	flag.Parse()

	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stdout, nil)))

	srv := devstub.New(*secret, logger)
	srv.AddAdmin("admin", "admin")
	srv.AddStudent("STU-001", "Alice Johnson", true)
	srv.AddStudent("STU-002", "Bob Smith", false)

	sess := srv.CreateSession("Algorithms", "101")
	log.Printf("seeded session %d, scan payload: %s", sess.ID, sess.QRPayload())
	log.Printf("listening on %s", *addr)

	if err := http.ListenAndServe(*addr, srv.Router()); err != nil {
		log.Fatalf("%v", err)
	}

}
