package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/pydbg/debugpy-mcp/internal/config"
	"github.com/pydbg/debugpy-mcp/internal/mcp"
	"github.com/pydbg/debugpy-mcp/internal/version"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "Path to configuration file")
	mode := flag.String("mode", "full", "Capability mode: 'readonly' or 'full'")
	listen := flag.String("listen", "", "Serve over SSE on this address (e.g. :8080) instead of stdio")
	showVersion := flag.Bool("version", false, "Show version and exit")
	help := flag.Bool("help", false, "Show help and exit")

	flag.Parse()

	if *showVersion {
		fmt.Printf("debugpy-mcp version %s\n", version.GetVersion())
		os.Exit(0)
	}

	if *help {
		printHelp()
		os.Exit(0)
	}

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Override mode from command line
	if *mode == "readonly" {
		cfg.Mode = config.ModeReadOnly
	} else if *mode == "full" {
		cfg.Mode = config.ModeFull
	}

	// Create and start the server
	server := mcp.NewServer(cfg)

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		log.Println("Shutting down...")
		server.Close()
		os.Exit(0)
	}()

	log.Println("debugpy-mcp server starting...")
	if *listen != "" {
		err = server.ServeSSE(*listen)
	} else {
		err = server.ServeStdio()
	}
	if err != nil {
		server.Close()
		log.Fatalf("Server error: %v", err)
	}
	server.Close()
}

func printHelp() {
	fmt.Println(`debugpy-mcp: debugpy MCP Server

A Model Context Protocol (MCP) server that bridges MCP tool calls to the
Debug Adapter Protocol (DAP), letting AI agents debug running Python
processes through debugpy.

USAGE:
    debugpy-mcp [OPTIONS]

OPTIONS:
    -config <path>     Path to configuration file (JSON)
    -mode <mode>       Capability mode: 'readonly' or 'full' (default: full)
    -listen <addr>     Serve over SSE on this address instead of stdio
    -version           Show version and exit
    -help              Show this help message

GETTING STARTED:
    Start your Python program with debugpy listening:

        python -m debugpy --listen 127.0.0.1:5678 --wait-for-client script.py

    Then call start_debug_session with that host and port.

CONFIGURATION:
    Create a JSON configuration file to customize behavior:

    {
        "mode": "full",
        "defaultHost": "127.0.0.1",
        "defaultPort": 5678,
        "maxSessions": 10
    }

MCP INTEGRATION:
    Add to your MCP client configuration:

    {
        "mcpServers": {
            "debugpy-mcp": {
                "command": "debugpy-mcp",
                "args": ["-mode", "full"]
            }
        }
    }

TOOLS:
    Session Management:
        start_debug_session       Connect to a running debugpy adapter
        stop_debug_session        Disconnect a session
        list_debug_sessions       List active sessions
        get_session_status        Get one session's state

    Inspection (both modes):
        list_breakpoints          List breakpoints with hit counts
        inspect_stack             Get call stack
        inspect_variables         Get frame variables
        get_source_code           Read source around a line
        list_debuggable_processes Find debugpy targets

    Control (full mode only):
        set_breakpoint            Set a source breakpoint
        clear_breakpoint          Remove a breakpoint
        continue_execution        Resume execution
        step_over / step_into / step_out
        evaluate_expression       Evaluate an expression`)
}
