// Package procscan discovers running Python processes that look like debug
// targets. A process counts as debuggable when its command line loads
// debugpy; if it passes --listen, the listen port is extracted so a caller
// can connect directly.
package procscan

import (
	"strconv"
	"strings"

	"github.com/shirou/gopsutil/v4/process"

	"github.com/pydbg/debugpy-mcp/pkg/types"
)

// Scan returns all running Python processes, flagging those started with
// debugpy. Processes that disappear or deny access mid-scan are skipped.
func Scan() ([]types.ProcessInfo, error) {
	procs, err := process.Processes()
	if err != nil {
		return nil, err
	}

	var out []types.ProcessInfo
	for _, p := range procs {
		name, err := p.Name()
		if err != nil || !strings.Contains(strings.ToLower(name), "python") {
			continue
		}

		cmdline, err := p.Cmdline()
		if err != nil {
			continue
		}

		info := types.ProcessInfo{
			PID:         int(p.Pid),
			Name:        name,
			CommandLine: cmdline,
		}

		if strings.Contains(cmdline, "debugpy") {
			info.Debuggable = true
			if args, err := p.CmdlineSlice(); err == nil {
				info.DebugPort = parseListenPort(args)
			}
		}

		out = append(out, info)
	}
	return out, nil
}

// parseListenPort extracts the port from a debugpy --listen argument. The
// flag takes either "port" or "host:port", as a separate argument or as
// --listen=value.
func parseListenPort(args []string) int {
	for i, arg := range args {
		var value string
		switch {
		case arg == "--listen" && i+1 < len(args):
			value = args[i+1]
		case strings.HasPrefix(arg, "--listen="):
			value = strings.TrimPrefix(arg, "--listen=")
		default:
			continue
		}

		if idx := strings.LastIndex(value, ":"); idx >= 0 {
			value = value[idx+1:]
		}
		if port, err := strconv.Atoi(value); err == nil {
			return port
		}
	}
	return 0
}
