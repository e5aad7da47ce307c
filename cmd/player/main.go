// Command player drives one client's game session from the terminal against
// the configured store.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"impostor-service/config"
	"impostor-service/internal/bootstrap"
	"impostor-service/internal/gamesession"
	"impostor-service/internal/initializer"
	_ "impostor-service/log"

	"github.com/google/uuid"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const usage = "commands: reveal | hide | start | results | new | leave | end | view | quit"

func main() {
	pflag.String("room", "", "room code to join")
	pflag.String("user", "", "user id (random when empty)")
	pflag.String("name", "player", "display name")
	pflag.Int("create", 0, "create a room with this many slots before joining")
	pflag.Int("impostors", 1, "impostors for a created room")
	pflag.Parse()
	if err := viper.BindPFlags(pflag.CommandLine); err != nil {
		zap.L().Fatal("Failed to bind flags", zap.Error(err))
	}

	appConfig := config.Read()
	defer zap.L().Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo := initializer.InitDatabase(appConfig)
	defer repo.Close()
	changes := initializer.InitChangeFeed(appConfig, repo)
	if any(changes) != any(repo) {
		defer changes.Close()
	}
	bus := initializer.InitRoomRedis(appConfig)
	defer bus.Close()
	service := bootstrap.NewRoomService(appConfig, repo)

	userID := viper.GetString("user")
	if userID == "" {
		userID = uuid.NewString()
	}

	code := strings.ToUpper(viper.GetString("room"))
	if slots := viper.GetInt("create"); slots > 0 {
		room, err := service.CreateRoom(ctx, slots, viper.GetInt("impostors"), userID)
		if err != nil {
			zap.L().Fatal("Failed to create room", zap.Error(err))
		}
		code = room.Code
		fmt.Printf("created room %s\n", code)
	}
	if code == "" {
		fmt.Fprintln(os.Stderr, "--room or --create is required")
		os.Exit(2)
	}

	machine := gamesession.New(service, changes, bus, code, userID, viper.GetString("name"), gamesession.Config{
		PollInterval:   appConfig.Session.PollInterval,
		RequestTimeout: appConfig.Session.RequestTimeout,
	})

	runErr := make(chan error, 1)
	go func() { runErr <- machine.Run(ctx) }()
	go printUpdates(machine.Updates())

	fmt.Println(usage)
	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- strings.TrimSpace(scanner.Text())
		}
		close(lines)
	}()

	for {
		select {
		case err := <-runErr:
			if err != nil {
				zap.L().Error("Session ended", zap.Error(err))
			}
			return
		case line, ok := <-lines:
			if !ok || line == "quit" {
				stop()
				<-runErr
				return
			}
			if err := dispatch(ctx, machine, line); err != nil {
				fmt.Printf("error: %v\n", err)
			}
		}
	}
}

func dispatch(ctx context.Context, m *gamesession.Machine, line string) error {
	switch line {
	case "":
		return nil
	case "reveal":
		return m.Reveal(ctx)
	case "hide":
		return m.Hide(ctx)
	case "start":
		return m.StartRound(ctx)
	case "results":
		return m.ShowResults(ctx)
	case "new":
		return m.NewRound(ctx)
	case "leave":
		return m.Leave(ctx)
	case "end":
		return m.End(ctx)
	case "view":
		printView(m.View())
		return nil
	default:
		return fmt.Errorf("unknown command %q; %s", line, usage)
	}
}

func printUpdates(updates <-chan gamesession.View) {
	for view := range updates {
		printView(view)
	}
}

func printView(view gamesession.View) {
	out, err := json.Marshal(view)
	if err != nil {
		zap.L().Warn("Failed to render view", zap.Error(err))
		return
	}
	fmt.Println(string(out))
}
