package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/SOLUZZZZZZ1/voice-cr/pkg/configutil"
	"github.com/SOLUZZZZZZ1/voice-cr/pkg/transports/relay"
	"github.com/SOLUZZZZZZ1/voice-cr/pkg/voicecr"
)

func main() {
	configPath := flag.String("config", "", "")
	from := flag.String("from", "", "")
	to := flag.String("to", "", "")
	voiceURL := flag.String("voice_url", "", "")
	flag.Parse()
	if *from == "" || *to == "" {
		fmt.Println("usage: make_call -from=+34611222333 -to=+34644555666 [-config=...]")
		os.Exit(1)
	}
	cfg, err := voicecr.LoadConfig(*configPath)
	if err != nil {
		fmt.Println("config error:", err)
		os.Exit(1)
	}
	var settings relay.Config
	if err := configutil.DecodeSettings(cfg.Transport.Settings, &settings); err != nil {
		fmt.Println("settings error:", err)
		os.Exit(1)
	}
	dialer := relay.NewDialer(settings)
	callSID, err := dialer.Dial(context.Background(), *to, *from, *voiceURL)
	if err != nil {
		fmt.Println("call error:", err)
		os.Exit(1)
	}
	fmt.Println("call_sid:", callSID)
}
