package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"docquery-ai/config"
	"docquery-ai/internal/apiclient"
	"docquery-ai/internal/auth"
	"docquery-ai/internal/chat"
	"docquery-ai/internal/di"
	"docquery-ai/internal/documents"
	"docquery-ai/internal/models"
)

func main() {
	// Load environment variables
	err := config.LoadEnv()
	if err != nil {
		log.Fatalf("Failed to load environment variables: %v", err)
	}

	// Initialize dependencies
	di.Initialize()

	authService, err := di.GetAuthService()
	if err != nil {
		log.Fatalf("Failed to get auth service: %v", err)
	}
	session, err := di.GetChatSession()
	if err != nil {
		log.Fatalf("Failed to get chat session: %v", err)
	}
	docService, err := di.GetDocumentsService()
	if err != nil {
		log.Fatalf("Failed to get documents service: %v", err)
	}

	ctx := context.Background()
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("✨ Welcome to DocQuery! Connected to", config.Env.APIBaseURL)

	if err := login(ctx, authService, reader); err != nil {
		log.Fatalf("Login failed: %v", err)
	}
	if user := authService.Store().User(); user != nil {
		fmt.Printf("Logged in as %s\n\n", user.Email)
	}

	// Tokens are echoed as they arrive; the transcript in the store gets the
	// same text through the session callbacks.
	session.OnToken(func(text string) {
		fmt.Print(text)
	})

	// First Ctrl-C cancels an in-flight answer, a second one exits.
	var askMu sync.Mutex
	var cancelAsk context.CancelFunc

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		for range quit {
			askMu.Lock()
			if cancelAsk != nil {
				cancelAsk()
				cancelAsk = nil
				askMu.Unlock()
				continue
			}
			askMu.Unlock()
			fmt.Println("\n👋 Goodbye!")
			os.Exit(0)
		}
	}()

	printHelp()

	for {
		fmt.Print("docquery> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				fmt.Println("\n👋 Goodbye!")
				return
			}
			log.Fatalf("Failed to read input: %v", err)
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			if quitRequested := runCommand(ctx, line, session, authService, docService, reader); quitRequested {
				return
			}
			continue
		}

		askCtx, cancel := context.WithCancel(ctx)
		askMu.Lock()
		cancelAsk = cancel
		askMu.Unlock()

		err = session.Ask(askCtx, line)

		askMu.Lock()
		cancelAsk = nil
		askMu.Unlock()
		cancel()

		fmt.Println()
		if err != nil {
			if errors.Is(err, chat.ErrStreamBusy) {
				fmt.Println("A query is already streaming, wait for it to finish.")
				continue
			}
			fmt.Printf("⚠ %v\n\n", err)
			continue
		}
		if askCtx.Err() != nil {
			fmt.Println("(answer cancelled)")
			fmt.Println()
			continue
		}
		printAnswerDetails(session.Store())
		fmt.Println()
	}
}

func login(ctx context.Context, authService *auth.Service, reader *bufio.Reader) error {
	// An existing cookie session survives within a process run; on a fresh
	// start there is none, so this normally falls through to the prompt.
	if err := authService.CheckSession(ctx); err != nil {
		return err
	}
	if authService.Store().IsAuthenticated() {
		return nil
	}

	for attempts := 0; attempts < 3; attempts++ {
		fmt.Print("Email: ")
		email, err := reader.ReadString('\n')
		if err != nil {
			return err
		}
		fmt.Print("Password: ")
		password, err := reader.ReadString('\n')
		if err != nil {
			return err
		}

		err = authService.Login(ctx, strings.TrimSpace(email), strings.TrimSpace(password))
		if err == nil {
			return nil
		}
		fmt.Printf("Login failed: %v\n", err)
	}
	return errors.New("too many failed login attempts")
}

func runCommand(ctx context.Context, line string, session *chat.Session, authService *auth.Service, docService *documents.Service, reader *bufio.Reader) (quitRequested bool) {
	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "/help":
		printHelp()

	case "/list":
		docs, err := docService.List(ctx)
		if err != nil {
			printCommandError(err)
			return false
		}
		if len(docs) == 0 {
			fmt.Println("No documents uploaded yet.")
			return false
		}
		for _, doc := range docs {
			fmt.Printf("%s  %s (%d bytes, %s)\n", doc.ID, doc.Name, doc.Size, doc.Status)
		}

	case "/upload":
		if len(args) != 1 {
			fmt.Println("Usage: /upload <path>")
			return false
		}
		file, err := os.Open(args[0])
		if err != nil {
			printCommandError(err)
			return false
		}
		doc, err := docService.Upload(ctx, filepath.Base(args[0]), file)
		file.Close()
		if err != nil {
			printCommandError(err)
			return false
		}
		fmt.Printf("Uploaded %s as %s\n", doc.Name, doc.ID)

	case "/delete":
		if len(args) != 1 {
			fmt.Println("Usage: /delete <document-id>")
			return false
		}
		if err := docService.Delete(ctx, args[0]); err != nil {
			printCommandError(err)
			return false
		}
		fmt.Println("Deleted.")

	case "/docs":
		// No arguments clears the scope back to all documents.
		session.Store().SetActiveDocuments(args)
		if len(args) == 0 {
			fmt.Println("Asking across all documents.")
		} else {
			fmt.Printf("Asking within %d document(s).\n", len(args))
		}

	case "/clear":
		session.Store().ClearMessages()
		fmt.Println("Transcript cleared.")

	case "/logout":
		if err := authService.Logout(ctx); err != nil {
			printCommandError(err)
			return false
		}
		fmt.Println("Logged out.")
		if err := login(ctx, authService, reader); err != nil {
			fmt.Printf("Login failed: %v\n", err)
			return true
		}

	case "/exit", "/quit":
		fmt.Println("👋 Goodbye!")
		return true

	default:
		fmt.Printf("Unknown command %s, try /help\n", cmd)
	}
	return false
}

func printAnswerDetails(store *chat.Store) {
	messages := store.Messages()
	if len(messages) == 0 {
		return
	}
	last := messages[len(messages)-1]
	if last.Role != models.RoleAssistant {
		return
	}

	if len(last.Citations) > 0 {
		fmt.Println("\nSources:")
		for _, citation := range last.Citations {
			fmt.Printf("  [%.2f] %s: %s\n", citation.Score, citation.DocumentName, citation.Text)
		}
	}
	if last.Confidence != nil {
		fmt.Printf("Confidence: %s (%.2f)\n", last.ConfidenceLevel, *last.Confidence)
	}
	if last.Error != "" {
		fmt.Printf("⚠ %s\n", last.Error)
	}
}

func printCommandError(err error) {
	if errors.Is(err, apiclient.ErrSessionExpired) {
		fmt.Println("Session expired, use /logout to log in again.")
		return
	}
	fmt.Printf("⚠ %v\n", err)
}

func printHelp() {
	fmt.Println(`Commands:
  /list              list uploaded documents
  /upload <path>     upload a document
  /delete <id>       delete a document
  /docs [id ...]     restrict questions to the given documents (empty resets)
  /clear             clear the chat transcript
  /logout            log out and log in again
  /exit              quit
Anything else is sent as a question.`)
}
