package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"connectrpc.com/connect"
	"github.com/alecthomas/kingpin/v2"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/kazz187/agentboard/pkg/api/agentboardv1"
)

var (
	app        = kingpin.New("agentboard", "Terminal client for the agent board")
	configPath = app.Flag("config", "Path to the client config file").String()

	loginCmd      = app.Command("login", "Sign in and store the token")
	loginEmail    = loginCmd.Arg("email", "Account email").Required().String()
	loginPassword = loginCmd.Flag("password", "Password (read from stdin when omitted)").String()
	loginServer   = loginCmd.Flag("server", "Server URL to store").String()

	boardCmd    = app.Command("board", "Show the board")
	boardSprint = boardCmd.Flag("sprint", `Sprint filter: "all", "none" or a sprint label`).Default("all").String()

	watchCmd = app.Command("watch", "Print board events as they happen")

	taskCmd = app.Command("task", "Task commands")

	taskAddCmd         = taskCmd.Command("add", "Create a task in the backlog")
	taskAddTitle       = taskAddCmd.Arg("title", "Task title").Required().String()
	taskAddDescription = taskAddCmd.Flag("description", "Task description").Short('d').String()
	taskAddPriority    = taskAddCmd.Flag("priority", "Priority 1-5").Short('p').Default("3").Int()
	taskAddTags        = taskAddCmd.Flag("tags", "Comma separated tags").Short('t').String()
	taskAddSprint      = taskAddCmd.Flag("sprint", "Sprint label").Short('s').String()

	taskMoveCmd = taskCmd.Command("move", "Move a task to the next or previous column")
	taskMoveRef = taskMoveCmd.Arg("task", "Display id (TASK-3) or id").Required().String()
	taskMoveDir = taskMoveCmd.Arg("direction", "next or prev").Required().Enum("next", "prev")

	taskAssignCmd   = taskCmd.Command("assign", "Assign a task to an agent, or unassign it")
	taskAssignRef   = taskAssignCmd.Arg("task", "Display id (TASK-3) or id").Required().String()
	taskAssignAgent = taskAssignCmd.Arg("agent", "Agent name or id; omit to unassign").String()

	taskRmCmd = taskCmd.Command("rm", "Delete a task")
	taskRmRef = taskRmCmd.Arg("task", "Display id (TASK-3) or id").Required().String()

	agentCmd = app.Command("agent", "Agent commands")

	agentAddCmd         = agentCmd.Command("add", "Create an agent")
	agentAddName        = agentAddCmd.Arg("name", "Agent name").Required().String()
	agentAddDescription = agentAddCmd.Flag("description", "Agent description").Short('d').String()

	agentLsCmd = agentCmd.Command("ls", "List agents")

	agentRmCmd = agentCmd.Command("rm", "Delete an agent and clear its assignments")
	agentRmRef = agentRmCmd.Arg("agent", "Agent name or id").Required().String()
)

func main() {
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, command, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, command string, in io.Reader, out io.Writer) error {
	path := *configPath
	if path == "" {
		p, err := defaultConfigPath()
		if err != nil {
			return err
		}
		path = p
	}
	cfg, err := loadConfig(path)
	if err != nil {
		return err
	}
	if command == loginCmd.FullCommand() {
		return handleLogin(ctx, cfg, path, in, out)
	}

	c := newClient(cfg)
	switch command {
	case boardCmd.FullCommand():
		return handleBoard(ctx, c, *boardSprint, out)
	case watchCmd.FullCommand():
		return handleWatch(ctx, c, out)
	case taskAddCmd.FullCommand():
		return handleTaskAdd(ctx, c, out)
	case taskMoveCmd.FullCommand():
		return handleTaskMove(ctx, c, *taskMoveRef, *taskMoveDir, out)
	case taskAssignCmd.FullCommand():
		return handleTaskAssign(ctx, c, *taskAssignRef, *taskAssignAgent, out)
	case taskRmCmd.FullCommand():
		return handleTaskRm(ctx, c, *taskRmRef, out)
	case agentAddCmd.FullCommand():
		return handleAgentAdd(ctx, c, out)
	case agentLsCmd.FullCommand():
		return handleAgentLs(ctx, c, out)
	case agentRmCmd.FullCommand():
		return handleAgentRm(ctx, c, *agentRmRef, out)
	}
	return fmt.Errorf("unknown command %q", command)
}

func handleLogin(ctx context.Context, cfg *cliConfig, path string, in io.Reader, out io.Writer) error {
	if *loginServer != "" {
		cfg.Server = *loginServer
	}
	password := *loginPassword
	if password == "" {
		fmt.Fprint(out, "Password: ")
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("failed to read password: %w", err)
		}
		password = strings.TrimRight(line, "\r\n")
	}
	sess, err := login(ctx, cfg.Server, *loginEmail, password)
	if err != nil {
		return err
	}
	cfg.Token = sess.Token
	if err := cfg.save(path); err != nil {
		return err
	}
	fmt.Fprintf(out, "Signed in as %s (token expires %s)\n", sess.Principal.Email, sess.ExpiresAt.Local().Format("2006-01-02 15:04"))
	return nil
}

func handleBoard(ctx context.Context, c *agentboardv1.Client, sprint string, out io.Writer) error {
	res, err := c.GetBoard.CallUnary(ctx, connect.NewRequest(&agentboardv1.GetBoardRequest{Sprint: sprint}))
	if err != nil {
		return err
	}
	fmt.Fprintln(out, renderBoard(res.Msg))
	return nil
}

func handleWatch(ctx context.Context, c *agentboardv1.Client, out io.Writer) error {
	stream, err := c.WatchBoard.CallServerStream(ctx, connect.NewRequest(&agentboardv1.WatchBoardRequest{}))
	if err != nil {
		return err
	}
	defer stream.Close()
	for stream.Receive() {
		ev := stream.Msg()
		fmt.Fprintf(out, "%s %-14s %s\n", ev.CreatedAt.Local().Format("15:04:05"), ev.Type, ev.ResourceID)
	}
	if err := stream.Err(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func handleTaskAdd(ctx context.Context, c *agentboardv1.Client, out io.Writer) error {
	var tags []string
	if *taskAddTags != "" {
		tags = strings.Split(*taskAddTags, ",")
	}
	res, err := c.CreateTask.CallUnary(ctx, connect.NewRequest(&agentboardv1.CreateTaskRequest{
		Title:       *taskAddTitle,
		Description: *taskAddDescription,
		Priority:    *taskAddPriority,
		Tags:        tags,
		Sprint:      *taskAddSprint,
	}))
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Created %s %s\n", res.Msg.Task.TaskID, res.Msg.Task.Title)
	return nil
}

func handleTaskMove(ctx context.Context, c *agentboardv1.Client, ref, dir string, out io.Writer) error {
	tasks, err := c.ListTasks.CallUnary(ctx, connect.NewRequest(&agentboardv1.ListTasksRequest{}))
	if err != nil {
		return err
	}
	t, err := resolveTask(tasks.Msg.Tasks, ref)
	if err != nil {
		return err
	}
	res, err := c.MoveTask.CallUnary(ctx, connect.NewRequest(&agentboardv1.MoveTaskRequest{ID: t.ID, Direction: dir}))
	if err != nil {
		return err
	}
	if !res.Msg.Moved {
		fmt.Fprintf(out, "%s is already in %s\n", t.TaskID, res.Msg.Task.Status)
		return nil
	}
	fmt.Fprintf(out, "Moved %s to %s\n", t.TaskID, res.Msg.Task.Status)
	return nil
}

func handleTaskAssign(ctx context.Context, c *agentboardv1.Client, ref, agentRef string, out io.Writer) error {
	tasks, err := c.ListTasks.CallUnary(ctx, connect.NewRequest(&agentboardv1.ListTasksRequest{}))
	if err != nil {
		return err
	}
	t, err := resolveTask(tasks.Msg.Tasks, ref)
	if err != nil {
		return err
	}
	agentID, name := "", ""
	if agentRef != "" {
		agents, err := c.ListAgents.CallUnary(ctx, connect.NewRequest(&agentboardv1.ListAgentsRequest{}))
		if err != nil {
			return err
		}
		a, err := resolveAgent(agents.Msg.Agents, agentRef)
		if err != nil {
			return err
		}
		agentID, name = a.ID, a.Name
	}
	if _, err := c.AssignTask.CallUnary(ctx, connect.NewRequest(&agentboardv1.AssignTaskRequest{ID: t.ID, AgentID: agentID})); err != nil {
		return err
	}
	if agentID == "" {
		fmt.Fprintf(out, "Unassigned %s\n", t.TaskID)
		return nil
	}
	fmt.Fprintf(out, "Assigned %s to %s\n", t.TaskID, name)
	return nil
}

func handleTaskRm(ctx context.Context, c *agentboardv1.Client, ref string, out io.Writer) error {
	tasks, err := c.ListTasks.CallUnary(ctx, connect.NewRequest(&agentboardv1.ListTasksRequest{}))
	if err != nil {
		return err
	}
	t, err := resolveTask(tasks.Msg.Tasks, ref)
	if err != nil {
		return err
	}
	if _, err := c.DeleteTask.CallUnary(ctx, connect.NewRequest(&agentboardv1.DeleteTaskRequest{ID: t.ID})); err != nil {
		return err
	}
	fmt.Fprintf(out, "Deleted %s\n", t.TaskID)
	return nil
}

func handleAgentAdd(ctx context.Context, c *agentboardv1.Client, out io.Writer) error {
	res, err := c.CreateAgent.CallUnary(ctx, connect.NewRequest(&agentboardv1.CreateAgentRequest{
		Name:        *agentAddName,
		Description: *agentAddDescription,
	}))
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Created agent %s (%s)\n", res.Msg.Agent.Name, res.Msg.Agent.ID)
	return nil
}

func handleAgentLs(ctx context.Context, c *agentboardv1.Client, out io.Writer) error {
	res, err := c.ListAgents.CallUnary(ctx, connect.NewRequest(&agentboardv1.ListAgentsRequest{}))
	if err != nil {
		return err
	}
	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "AVATAR", "NAME", "DESCRIPTION")
	for _, a := range res.Msg.Agents {
		tbl.Row(a.ID, a.Avatar, a.Name, a.Description)
	}
	_, err = fmt.Fprintln(out, tbl.Render())
	return err
}

func handleAgentRm(ctx context.Context, c *agentboardv1.Client, ref string, out io.Writer) error {
	agents, err := c.ListAgents.CallUnary(ctx, connect.NewRequest(&agentboardv1.ListAgentsRequest{}))
	if err != nil {
		return err
	}
	a, err := resolveAgent(agents.Msg.Agents, ref)
	if err != nil {
		return err
	}
	if _, err := c.DeleteAgent.CallUnary(ctx, connect.NewRequest(&agentboardv1.DeleteAgentRequest{ID: a.ID})); err != nil {
		return err
	}
	fmt.Fprintf(out, "Deleted agent %s\n", a.Name)
	return nil
}
