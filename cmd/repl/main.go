// Command repl runs one interactive reservation session against the store.
// One process, one session, one command at a time; each command prints the
// engine's literal result string.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"flightdeck/internal/config"
	"flightdeck/internal/database"
	"flightdeck/internal/engine"
	"flightdeck/internal/logger"
	"flightdeck/internal/repository"
	"flightdeck/internal/store"
)

const usage = `Commands:
  create <username> <password> <balance>
  login <username> <password>
  search <origin> <dest> <direct 0|1> <day> <count>
  book <itinerary>
  pay <reservation>
  reservations
  cancel <reservation>
  reset
  quit
`

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, "text")

	db, err := database.Connect(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	defer db.Close()

	if err := db.EnsureSchema(); err != nil {
		logger.Fatal("Failed to ensure schema", "error", err)
	}

	eng := engine.New(
		store.New(db),
		repository.NewFlightRepository(),
		repository.NewReservationRepository(),
		repository.NewUserRepository(),
		repository.NewResetRepository(),
	)
	session := eng.NewSession()
	ctx := context.Background()

	fmt.Print(usage)
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if fields[0] == "quit" || fields[0] == "exit" {
			break
		}

		result, err := dispatch(ctx, eng, session, fields)
		if err != nil {
			// A dangling transaction is a defect, not a user error. Bail out.
			logger.Fatal("Fatal engine error", "error", err)
		}
		fmt.Print(result)
	}

	if err := scanner.Err(); err != nil {
		logger.Fatal("Failed to read input", "error", err)
	}
}

func dispatch(ctx context.Context, eng *engine.Engine, session *engine.Session, fields []string) (string, error) {
	switch fields[0] {
	case "create":
		if len(fields) != 4 {
			return usage, nil
		}
		balance, err := strconv.Atoi(fields[3])
		if err != nil {
			return usage, nil
		}
		return eng.CreateUser(ctx, fields[1], fields[2], balance)

	case "login":
		if len(fields) != 3 {
			return usage, nil
		}
		return session.Login(ctx, fields[1], fields[2])

	case "search":
		if len(fields) != 6 {
			return usage, nil
		}
		day, err1 := strconv.Atoi(fields[4])
		count, err2 := strconv.Atoi(fields[5])
		if err1 != nil || err2 != nil {
			return usage, nil
		}
		return session.Search(ctx, fields[1], fields[2], fields[3] == "1", day, count)

	case "book":
		if len(fields) != 2 {
			return usage, nil
		}
		index, err := strconv.Atoi(fields[1])
		if err != nil {
			return usage, nil
		}
		return session.Book(ctx, index)

	case "pay":
		if len(fields) != 2 {
			return usage, nil
		}
		rid, err := strconv.Atoi(fields[1])
		if err != nil {
			return usage, nil
		}
		return session.Pay(ctx, rid)

	case "reservations":
		return session.Reservations(ctx)

	case "cancel":
		if len(fields) != 2 {
			return usage, nil
		}
		rid, err := strconv.Atoi(fields[1])
		if err != nil {
			return usage, nil
		}
		return session.Cancel(ctx, rid)

	case "reset":
		if err := eng.Reset(ctx); err != nil {
			return "Failed to reset\n", nil
		}
		return "Reset complete\n", nil

	default:
		return usage, nil
	}
}
