package agentboardv1

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/kazz187/agentboard/pkg/jsoncodec"
)

const (
	TaskServiceName  = "agentboard.v1.TaskService"
	AgentServiceName = "agentboard.v1.AgentService"
	BoardServiceName = "agentboard.v1.BoardService"
)

const (
	TaskServiceListTasksProcedure    = "/agentboard.v1.TaskService/ListTasks"
	TaskServiceCreateTaskProcedure   = "/agentboard.v1.TaskService/CreateTask"
	TaskServiceMoveTaskProcedure     = "/agentboard.v1.TaskService/MoveTask"
	TaskServiceAssignTaskProcedure   = "/agentboard.v1.TaskService/AssignTask"
	TaskServiceUpdateTaskProcedure   = "/agentboard.v1.TaskService/UpdateTask"
	TaskServiceDeleteTaskProcedure   = "/agentboard.v1.TaskService/DeleteTask"
	AgentServiceListAgentsProcedure  = "/agentboard.v1.AgentService/ListAgents"
	AgentServiceCreateAgentProcedure = "/agentboard.v1.AgentService/CreateAgent"
	AgentServiceUpdateAgentProcedure = "/agentboard.v1.AgentService/UpdateAgent"
	AgentServiceDeleteAgentProcedure = "/agentboard.v1.AgentService/DeleteAgent"
	BoardServiceGetBoardProcedure    = "/agentboard.v1.BoardService/GetBoard"
	BoardServiceWatchBoardProcedure  = "/agentboard.v1.BoardService/WatchBoard"
)

type TaskServiceHandler interface {
	ListTasks(context.Context, *connect.Request[ListTasksRequest]) (*connect.Response[ListTasksResponse], error)
	CreateTask(context.Context, *connect.Request[CreateTaskRequest]) (*connect.Response[CreateTaskResponse], error)
	MoveTask(context.Context, *connect.Request[MoveTaskRequest]) (*connect.Response[MoveTaskResponse], error)
	AssignTask(context.Context, *connect.Request[AssignTaskRequest]) (*connect.Response[AssignTaskResponse], error)
	UpdateTask(context.Context, *connect.Request[UpdateTaskRequest]) (*connect.Response[UpdateTaskResponse], error)
	DeleteTask(context.Context, *connect.Request[DeleteTaskRequest]) (*connect.Response[DeleteTaskResponse], error)
}

type AgentServiceHandler interface {
	ListAgents(context.Context, *connect.Request[ListAgentsRequest]) (*connect.Response[ListAgentsResponse], error)
	CreateAgent(context.Context, *connect.Request[CreateAgentRequest]) (*connect.Response[CreateAgentResponse], error)
	UpdateAgent(context.Context, *connect.Request[UpdateAgentRequest]) (*connect.Response[UpdateAgentResponse], error)
	DeleteAgent(context.Context, *connect.Request[DeleteAgentRequest]) (*connect.Response[DeleteAgentResponse], error)
}

type BoardServiceHandler interface {
	GetBoard(context.Context, *connect.Request[GetBoardRequest]) (*connect.Response[GetBoardResponse], error)
	WatchBoard(context.Context, *connect.Request[WatchBoardRequest], *connect.ServerStream[BoardEvent]) error
}

func handlerOptions(opts []connect.HandlerOption) []connect.HandlerOption {
	return append([]connect.HandlerOption{jsoncodec.HandlerOption()}, opts...)
}

func NewTaskServiceHandler(svc TaskServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	mux := http.NewServeMux()
	mux.Handle(TaskServiceListTasksProcedure, connect.NewUnaryHandler(TaskServiceListTasksProcedure, svc.ListTasks, opts...))
	mux.Handle(TaskServiceCreateTaskProcedure, connect.NewUnaryHandler(TaskServiceCreateTaskProcedure, svc.CreateTask, opts...))
	mux.Handle(TaskServiceMoveTaskProcedure, connect.NewUnaryHandler(TaskServiceMoveTaskProcedure, svc.MoveTask, opts...))
	mux.Handle(TaskServiceAssignTaskProcedure, connect.NewUnaryHandler(TaskServiceAssignTaskProcedure, svc.AssignTask, opts...))
	mux.Handle(TaskServiceUpdateTaskProcedure, connect.NewUnaryHandler(TaskServiceUpdateTaskProcedure, svc.UpdateTask, opts...))
	mux.Handle(TaskServiceDeleteTaskProcedure, connect.NewUnaryHandler(TaskServiceDeleteTaskProcedure, svc.DeleteTask, opts...))
	return "/" + TaskServiceName + "/", mux
}

func NewAgentServiceHandler(svc AgentServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	mux := http.NewServeMux()
	mux.Handle(AgentServiceListAgentsProcedure, connect.NewUnaryHandler(AgentServiceListAgentsProcedure, svc.ListAgents, opts...))
	mux.Handle(AgentServiceCreateAgentProcedure, connect.NewUnaryHandler(AgentServiceCreateAgentProcedure, svc.CreateAgent, opts...))
	mux.Handle(AgentServiceUpdateAgentProcedure, connect.NewUnaryHandler(AgentServiceUpdateAgentProcedure, svc.UpdateAgent, opts...))
	mux.Handle(AgentServiceDeleteAgentProcedure, connect.NewUnaryHandler(AgentServiceDeleteAgentProcedure, svc.DeleteAgent, opts...))
	return "/" + AgentServiceName + "/", mux
}

func NewBoardServiceHandler(svc BoardServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	mux := http.NewServeMux()
	mux.Handle(BoardServiceGetBoardProcedure, connect.NewUnaryHandler(BoardServiceGetBoardProcedure, svc.GetBoard, opts...))
	mux.Handle(BoardServiceWatchBoardProcedure, connect.NewServerStreamHandler(BoardServiceWatchBoardProcedure, svc.WatchBoard, opts...))
	return "/" + BoardServiceName + "/", mux
}

// Client bundles the clients of all three services.
type Client struct {
	ListTasks   *connect.Client[ListTasksRequest, ListTasksResponse]
	CreateTask  *connect.Client[CreateTaskRequest, CreateTaskResponse]
	MoveTask    *connect.Client[MoveTaskRequest, MoveTaskResponse]
	AssignTask  *connect.Client[AssignTaskRequest, AssignTaskResponse]
	UpdateTask  *connect.Client[UpdateTaskRequest, UpdateTaskResponse]
	DeleteTask  *connect.Client[DeleteTaskRequest, DeleteTaskResponse]
	ListAgents  *connect.Client[ListAgentsRequest, ListAgentsResponse]
	CreateAgent *connect.Client[CreateAgentRequest, CreateAgentResponse]
	UpdateAgent *connect.Client[UpdateAgentRequest, UpdateAgentResponse]
	DeleteAgent *connect.Client[DeleteAgentRequest, DeleteAgentResponse]
	GetBoard    *connect.Client[GetBoardRequest, GetBoardResponse]
	WatchBoard  *connect.Client[WatchBoardRequest, BoardEvent]
}

func NewClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{jsoncodec.ClientOption()}, opts...)
	return &Client{
		ListTasks:   connect.NewClient[ListTasksRequest, ListTasksResponse](httpClient, baseURL+TaskServiceListTasksProcedure, opts...),
		CreateTask:  connect.NewClient[CreateTaskRequest, CreateTaskResponse](httpClient, baseURL+TaskServiceCreateTaskProcedure, opts...),
		MoveTask:    connect.NewClient[MoveTaskRequest, MoveTaskResponse](httpClient, baseURL+TaskServiceMoveTaskProcedure, opts...),
		AssignTask:  connect.NewClient[AssignTaskRequest, AssignTaskResponse](httpClient, baseURL+TaskServiceAssignTaskProcedure, opts...),
		UpdateTask:  connect.NewClient[UpdateTaskRequest, UpdateTaskResponse](httpClient, baseURL+TaskServiceUpdateTaskProcedure, opts...),
		DeleteTask:  connect.NewClient[DeleteTaskRequest, DeleteTaskResponse](httpClient, baseURL+TaskServiceDeleteTaskProcedure, opts...),
		ListAgents:  connect.NewClient[ListAgentsRequest, ListAgentsResponse](httpClient, baseURL+AgentServiceListAgentsProcedure, opts...),
		CreateAgent: connect.NewClient[CreateAgentRequest, CreateAgentResponse](httpClient, baseURL+AgentServiceCreateAgentProcedure, opts...),
		UpdateAgent: connect.NewClient[UpdateAgentRequest, UpdateAgentResponse](httpClient, baseURL+AgentServiceUpdateAgentProcedure, opts...),
		DeleteAgent: connect.NewClient[DeleteAgentRequest, DeleteAgentResponse](httpClient, baseURL+AgentServiceDeleteAgentProcedure, opts...),
		GetBoard:    connect.NewClient[GetBoardRequest, GetBoardResponse](httpClient, baseURL+BoardServiceGetBoardProcedure, opts...),
		WatchBoard:  connect.NewClient[WatchBoardRequest, BoardEvent](httpClient, baseURL+BoardServiceWatchBoardProcedure, opts...),
	}
}
