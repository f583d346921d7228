package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"ai-buildguide-be/internal/dto"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var walkCmd = &cobra.Command{
	Use:   "walk",
	Short: "Open a session and type commands (next, back, repeat, restart, new project)",
	RunE:  runWalk,
}

func runWalk(cmd *cobra.Command, args []string) error {
	frame, err := call[dto.DisplayFrame]("POST", "/sessions", nil)
	if err != nil {
		color.Red("Failed to open session: %v", err)
		return err
	}
	id := frame.SessionID
	defer func() {
		if _, err := call[any]("DELETE", "/sessions/"+id, nil); err != nil {
			color.Red("Failed to close session: %v", err)
		}
	}()

	show(frame)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "quit", "exit":
			return nil
		}

		frame, err := call[dto.DisplayFrame]("POST", "/sessions/"+id+"/commands", dto.SessionCommandRequest{Command: line})
		if err != nil {
			color.Red("%v", err)
			continue
		}
		show(frame)
	}
}

func show(f dto.DisplayFrame) {
	color.Cyan("[%s]", f.Phase)
	fmt.Println(f.Text)
}
