package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/LubyRuffy/kanbanchat"
	"github.com/LubyRuffy/kanbanchat/board"
	"github.com/LubyRuffy/kanbanchat/chatclient"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newChatCmd(v *viper.Viper, load func() (settings, error)) *cobra.Command {
	var noHeuristic bool
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with the board assistant in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := load()
			if err != nil {
				return err
			}
			return runChat(cmd.Context(), s, noHeuristic, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	flags := cmd.Flags()
	flags.String("server-url", "", "kanbanchat server api url (default derived from --listen/--base-path)")
	flags.Duration("refresh-delay", 0, "delay before refreshing the board after a task is created")
	flags.BoolVar(&noHeuristic, "no-heuristic", false, "only refresh on explicit task-created signals")
	bindFlag(v, cmd, "server_url", "server-url")
	bindFlag(v, cmd, "refresh_delay", "refresh-delay")
	return cmd
}

func runChat(ctx context.Context, s settings, noHeuristic bool, in io.Reader, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	client := chatclient.NewClient(s.ServerURL, nil)
	var outMu sync.Mutex
	tr := &transcript{w: out}

	session, err := chatclient.NewSession(chatclient.SessionConfig{
		Client:           client,
		RefreshDelay:     s.RefreshDelay,
		DisableHeuristic: noHeuristic,
		OnUpdate: func(msgs []chatclient.Message) {
			outMu.Lock()
			defer outMu.Unlock()
			tr.update(msgs)
		},
		OnTaskCreated: func() {
			tasks, err := client.ListTasks(ctx)
			outMu.Lock()
			defer outMu.Unlock()
			if err != nil {
				fmt.Fprintf(out, "\n(failed to refresh board: %v)\n", err)
				return
			}
			fmt.Fprintf(out, "\n%s\n", renderBoard(tasks))
		},
		Logger: logrus.StandardLogger(),
	})
	if err != nil {
		return err
	}
	tr.update(session.Messages())
	tr.endTurn()

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			break
		}
		text := strings.TrimSpace(scanner.Text())
		switch text {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		}

		tasks, err := client.ListTasks(ctx)
		if err != nil {
			logrus.WithError(err).Warn("failed to load board, sending without task context")
		}
		err = session.Send(ctx, text, board.Summaries(tasks))
		outMu.Lock()
		tr.endTurn()
		outMu.Unlock()
		if errors.Is(err, chatclient.ErrBusy) {
			fmt.Fprintln(out, "(still waiting for the previous reply)")
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	fmt.Fprintln(out)
	return nil
}

// transcript 把会话消息增量打印到终端：流式更新的助手消息只打印新增部分。
type transcript struct {
	w       io.Writer
	index   int
	printed int
	open    bool
}

func (t *transcript) update(msgs []chatclient.Message) {
	if len(msgs) == 0 {
		return
	}
	last := len(msgs) - 1
	if last != t.index {
		if t.open {
			fmt.Fprintln(t.w)
			t.open = false
		}
		t.index = last
		t.printed = 0
	}
	m := msgs[last]
	if m.Role != chatclient.RoleAssistant || len(m.Content) <= t.printed {
		return
	}
	fmt.Fprint(t.w, m.Content[t.printed:])
	t.printed = len(m.Content)
	t.open = true
}

func (t *transcript) endTurn() {
	if t.open {
		fmt.Fprintln(t.w)
		t.open = false
	}
}

// renderBoard 按列输出看板。
func renderBoard(tasks []board.Task) string {
	var b strings.Builder
	for i, status := range kanbanchat.Statuses() {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "## %s\n", kanbanchat.ColumnName(status))
		n := 0
		for _, task := range tasks {
			if task.Status != status {
				continue
			}
			n++
			b.WriteString(board.Digest([]board.Summary{task.Summary()}))
			b.WriteString("\n")
		}
		if n == 0 {
			b.WriteString("  (empty)\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
