package main

import (
	"fmt"
	"os"
	"strings"

	cli "github.com/spf13/pflag"

	"voxassist/internal/ipc"
)

func main() {
	socket := cli.StringP("socket", "s", ipc.SocketPath, "Control socket of vox-daemon")
	cli.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: vox-ctl [--socket path] <utterance...>")
		cli.PrintDefaults()
	}
	cli.Parse()

	text := strings.Join(cli.Args(), " ")
	if strings.TrimSpace(text) == "" {
		cli.Usage()
		os.Exit(2)
	}

	err := ipc.SendCommand(*socket, ipc.ControlMessage{Cmd: ipc.CmdSay, Text: text})
	if err != nil {
		fmt.Println("vox-daemon not running:", err)
		os.Exit(1)
	}
}
