package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

type client struct {
	BaseURL   string
	Token     string
	OutFormat string // "json" | "text"
	HTTP      *http.Client
}

func (c *client) do(method, path string, body []byte) (int, []byte, error) {
	url := strings.TrimRight(c.BaseURL, "/") + path
	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	if err != nil {
		return 0, nil, err
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, b, nil
}

func (c *client) print(status int, body []byte) {
	if c.OutFormat == "json" {
		var v any
		if json.Unmarshal(body, &v) == nil {
			p, _ := json.MarshalIndent(v, "", "  ")
			fmt.Println(string(p))
			return
		}
	}
	if len(body) > 0 {
		fmt.Println(string(body))
	} else {
		fmt.Printf("status=%d\n", status)
	}
}

func main() {
	var (
		baseURL = envOr("TASKBOARD_URL", "http://localhost:8000")
		token   = envOr("TASKBOARD_TOKEN", "")
		out     = envOr("TASKBOARD_OUT", "text")
		timeout = 30 * time.Second
	)

	root := &cobra.Command{
		Use:   "taskctl",
		Short: "CLI para el API de tareas",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if token == "" {
				return fmt.Errorf("falta bearer token (flag --token o env TASKBOARD_TOKEN)")
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&baseURL, "url", baseURL, "URL base del servicio (env TASKBOARD_URL)")
	root.PersistentFlags().StringVar(&token, "token", token, "Bearer token emitido por Keycloak (env TASKBOARD_TOKEN)")
	root.PersistentFlags().StringVar(&out, "out", out, "Formato de salida: json|text")

	httpClient := &http.Client{Timeout: timeout}
	cl := &client{BaseURL: baseURL, Token: token, OutFormat: out, HTTP: httpClient}

	// grupo tasks
	tasksCmd := &cobra.Command{
		Use:   "tasks",
		Short: "Operaciones sobre tareas",
	}

	var listSkip, listLimit int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Listar tareas (paginado con --skip/--limit)",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := fmt.Sprintf("/tasks?skip=%d&limit=%d", listSkip, listLimit)
			status, body, err := cl.do("GET", path, nil)
			if err != nil {
				return err
			}
			if status/100 != 2 {
				return fmt.Errorf("list fallo: status=%d body=%s", status, string(body))
			}
			cl.print(status, body)
			return nil
		},
	}
	listCmd.Flags().IntVar(&listSkip, "skip", 0, "Cantidad de tareas a saltear")
	listCmd.Flags().IntVar(&listLimit, "limit", 100, "Máximo de tareas a devolver")

	getCmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Obtener una tarea por id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, body, err := cl.do("GET", "/tasks/"+args[0], nil)
			if err != nil {
				return err
			}
			if status/100 != 2 {
				return fmt.Errorf("get fallo: status=%d body=%s", status, string(body))
			}
			cl.print(status, body)
			return nil
		},
	}

	var createTitle, createDesc, createStatus, createAssignee string
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Crear una tarea (requiere rol project_manager o app_admin)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if createTitle == "" {
				return fmt.Errorf("--title es requerido")
			}
			payload := map[string]any{"title": createTitle}
			if createDesc != "" {
				payload["description"] = createDesc
			}
			if createStatus != "" {
				payload["status"] = createStatus
			}
			if createAssignee != "" {
				payload["assignee_id"] = createAssignee
			}
			b, _ := json.Marshal(payload)
			status, body, err := cl.do("POST", "/tasks", b)
			if err != nil {
				return err
			}
			if status/100 != 2 {
				return fmt.Errorf("create fallo: status=%d body=%s", status, string(body))
			}
			cl.print(status, body)
			return nil
		},
	}
	createCmd.Flags().StringVar(&createTitle, "title", "", "Título (máx 100 caracteres)")
	createCmd.Flags().StringVar(&createDesc, "description", "", "Descripción (opcional)")
	createCmd.Flags().StringVar(&createStatus, "status", "", "Estado: todo|in-progress|done")
	createCmd.Flags().StringVar(&createAssignee, "assignee", "", "Id del asignado (opcional)")

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Borrar una tarea por id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, body, err := cl.do("DELETE", "/tasks/"+args[0], nil)
			if err != nil {
				return err
			}
			if status/100 != 2 {
				return fmt.Errorf("delete fallo: status=%d body=%s", status, string(body))
			}
			if cl.OutFormat == "text" {
				fmt.Println("ok")
				return nil
			}
			cl.print(status, body)
			return nil
		},
	}

	tasksCmd.AddCommand(listCmd, getCmd, createCmd, deleteCmd)

	meCmd := &cobra.Command{
		Use:   "me",
		Short: "Mostrar la identidad del token actual",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, body, err := cl.do("GET", "/users/me", nil)
			if err != nil {
				return err
			}
			if status/100 != 2 {
				return fmt.Errorf("me fallo: status=%d body=%s", status, string(body))
			}
			cl.print(status, body)
			return nil
		},
	}

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Estadísticas de completado de tareas",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, body, err := cl.do("GET", "/stats/task-completion", nil)
			if err != nil {
				return err
			}
			if status/100 != 2 {
				return fmt.Errorf("stats fallo: status=%d body=%s", status, string(body))
			}
			cl.print(status, body)
			return nil
		},
	}

	root.AddCommand(tasksCmd, meCmd, statsCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
