package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eiannone/keyboard"
	"github.com/gordonklaus/portaudio"

	"github.com/JasonLiang12321/auraforming-ai/internal/api"
	"github.com/JasonLiang12321/auraforming-ai/internal/codec"
	"github.com/JasonLiang12321/auraforming-ai/internal/config"
	"github.com/JasonLiang12321/auraforming-ai/internal/interview"
	"github.com/JasonLiang12321/auraforming-ai/internal/mic"
	"github.com/JasonLiang12321/auraforming-ai/internal/monitor"
	"github.com/JasonLiang12321/auraforming-ai/internal/playback"
)

func main() {
	// Include sub-second precision in all log timestamps
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)

	cfg := config.Load()
	agentFlag := flag.String("agent", "", "agent id to interview for (overrides AGENT_ID)")
	langFlag := flag.String("lang", "", "interview language code (overrides LANGUAGE_CODE)")
	flag.Parse()

	agentID := cfg.AgentID
	if *agentFlag != "" {
		agentID = *agentFlag
	}
	if agentID == "" {
		log.Fatal("no agent id: set AGENT_ID or pass -agent")
	}
	languageCode := cfg.LanguageCode
	if *langFlag != "" {
		languageCode = *langFlag
	}

	if err := portaudio.Initialize(); err != nil {
		log.Fatalf("portaudio init: %v", err)
	}
	defer portaudio.Terminate()

	client := api.NewClient(cfg.APIBaseURL)

	// welcome screen: agent metadata is read-only and non-fatal
	ctxMeta, cancelMeta := context.WithTimeout(context.Background(), 10*time.Second)
	agent, err := client.GetAgent(ctxMeta, agentID)
	cancelMeta()
	if err != nil {
		log.Printf("agent metadata unavailable: %v", err)
	} else {
		fmt.Printf("Interview for %q\n", agent.AgentName)
	}

	player, err := playback.NewPlayer()
	if err != nil {
		log.Fatalf("speaker unavailable: %v", err)
	}
	tone, err := playback.NewTone()
	if err != nil {
		log.Fatalf("speaker unavailable: %v", err)
	}

	source := mic.NewPortAudioSource()
	recorder := mic.NewRecorder(source)

	var mon *monitor.Server
	var sess *interview.Session
	sess = interview.NewSession(interview.Options{
		Backend:  client,
		Source:   source,
		Recorder: recorder,
		Player:   player,
		Tone:     tone,
		Encoder:  codec.Pick(source.SampleRate()),
		BaseURL:  cfg.APIBaseURL,
		OnTranscript: func(line interview.Line) {
			speaker := "Agent"
			if line.Source == "user" {
				speaker = "You"
			}
			fmt.Printf("%s: %s\n", speaker, line.Message)
			if mon != nil {
				mon.Broadcast(monitor.Event{Type: "transcript", Line: &line})
			}
		},
		OnChange: func() {
			if mon == nil {
				return
			}
			snap := sess.Snapshot()
			mon.Broadcast(monitor.Event{Type: "state", Snapshot: &snap})
		},
	})

	if cfg.MonitorAddress != "" {
		mon = monitor.New(sess)
		go func() {
			if err := mon.Start(cfg.MonitorAddress); err != nil {
				log.Printf("monitor server stopped: %v", err)
			}
		}()
	}

	// every exit path converges on the same teardown
	shutdown := func() {
		sess.End()
		player.Close()
		if mon != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			_ = mon.Shutdown(ctx)
			cancel()
		}
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Printf("shutdown signal received: %v", sig)
		shutdown()
		os.Exit(0)
	}()

	fmt.Println("Press Enter to start the interview...")
	if _, _, err := keyboardWait(); err != nil {
		log.Fatalf("keyboard: %v", err)
	}

	ctxStart, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	err = sess.Start(ctxStart, agentID, languageCode)
	cancelStart()
	if err != nil {
		snap := sess.Snapshot()
		shutdown()
		log.Fatalf("could not start interview: %s (%v)", snap.Message, err)
	}

	fmt.Println("Interview started. Space: hold a turn (press to talk, press again to send). Esc or q: end.")
	runTurnLoop(sess)
	snap := sess.Snapshot()
	shutdown()

	if snap.DownloadURL != "" {
		fmt.Printf("Interview complete. Download your filled form: %s%s\n", cfg.APIBaseURL, snap.DownloadURL)
	}
}

func keyboardWait() (rune, keyboard.Key, error) {
	if err := keyboard.Open(); err != nil {
		return 0, 0, err
	}
	defer keyboard.Close()
	return keyboard.GetKey()
}

// runTurnLoop drives push-to-talk from the keyboard until the interview
// completes or the user quits.
func runTurnLoop(sess *interview.Session) {
	if err := keyboard.Open(); err != nil {
		log.Printf("keyboard: %v", err)
		return
	}
	defer keyboard.Close()

	recording := false
	for {
		char, key, err := keyboard.GetKey()
		if err != nil {
			log.Printf("keyboard: %v", err)
			return
		}
		switch {
		case key == keyboard.KeySpace:
			if !recording {
				if err := sess.BeginTurn(); err != nil {
					fmt.Println(sess.Snapshot().Message)
					continue
				}
				recording = true
				fmt.Println("[recording] press Space again to send")
			} else {
				recording = false
				if err := sess.EndTurn(); err != nil {
					log.Printf("turn: %v", err)
				}
				if msg := sess.Snapshot().Message; msg != "" {
					fmt.Println(msg)
				}
			}
		case key == keyboard.KeyEsc || char == 'q':
			return
		}

		snap := sess.Snapshot()
		if snap.Completed {
			fmt.Println("All required fields are captured. Thank you!")
			return
		}
		if snap.Status == interview.StatusError {
			fmt.Println(snap.Message)
			return
		}
	}
}
