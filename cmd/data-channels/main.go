// Command data-channels answers a compiled-in WebRTC offer, prints its local
// session description as a base64 line for paste-based signaling, and sends
// random messages on every data channel the remote opens until interrupted.
package main

import (
	"fmt"
	"os"
	ossignal "os/signal"

	"github.com/joho/godotenv"
	"github.com/pion/webrtc/v4"

	"github.com/rtcx/data-channels/pkg/config"
	"github.com/rtcx/data-channels/pkg/logging"
	"github.com/rtcx/data-channels/pkg/peer"
	"github.com/rtcx/data-channels/pkg/signal"
)

// offerSDP is the compiled-in remote offer. The demo is not a full signaling
// endpoint; keeping the literal verbatim keeps the printed answer
// reproducible.
const offerSDP = "v=0\r\no=- 5340727823215260889 1636897623 IN IP4 0.0.0.0\r\ns=-\r\nt=0 0\r\na=fingerprint:sha-256 B7:D9:04:8D:52:B2:F5:46:BA:9F:EB:AC:E0:62:65:D3:71:E1:2B:13:1B:ED:87:8D:E5:1D:60:8A:4A:27:4F:C5\r\na=group:BUNDLE 0\r\nm=application 9 UDP/DTLS/SCTP webrtc-datachannel\r\nc=IN IP4 0.0.0.0\r\na=setup:actpass\r\na=mid:0\r\na=sendrecv\r\na=sctp-port:5000\r\na=ice-ufrag:PCrxmuHcaZphIFEj\r\na=ice-pwd:JNlJxHWYGduaIDcAZpkrghAcDDuzrxqD\r\n"

// remoteCandidate is the hard-coded host candidate injected after the
// remote description is applied.
const remoteCandidate = "candidate:422338508 1 udp 2130706431 1.2.3.4 61411 typ host"

func main() {
	// Optional .env in the working directory; missing files are fine.
	_ = godotenv.Load()

	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if cfg.FullHelp {
		fmt.Println(config.FullHelp())
		os.Exit(0)
	}

	if err := run(cfg); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	driverCfg := peer.Config{
		STUNServers: []string{cfg.STUNServer},
	}

	// The global logger must be in place before any WebRTC construction.
	if cfg.Debug {
		driverCfg.LoggerFactory = logging.NewLoggerFactory(logging.Init())
	}

	driver, err := peer.NewDriver(driverCfg)
	if err != nil {
		return err
	}

	offer := webrtc.SessionDescription{
		Type: webrtc.SDPTypeOffer,
		SDP:  offerSDP,
	}

	if err := driver.Answer(offer); err != nil {
		return err
	}

	sdpMid := ""
	var sdpMLineIndex uint16
	if err := driver.AddRemoteCandidate(webrtc.ICECandidateInit{
		Candidate:     remoteCandidate,
		SDPMid:        &sdpMid,
		SDPMLineIndex: &sdpMLineIndex,
	}); err != nil {
		// The candidate is a compile-time constant; failing to add it is
		// a programming error.
		panic(err)
	}

	// Output the answer in base64 so it can be pasted into the remote peer.
	if localDesc := driver.LocalDescription(); localDesc != nil {
		encoded, err := signal.Encode(localDesc)
		if err != nil {
			return err
		}
		fmt.Println(encoded)
	} else {
		fmt.Println("generate local_description failed!")
	}

	fmt.Println("Press ctrl-c to stop")

	interrupt := make(chan os.Signal, 1)
	ossignal.Notify(interrupt, os.Interrupt)

	// Single-shot multiplex: programmatic shutdown or operator interrupt,
	// whichever arrives first.
	select {
	case <-driver.Done():
		fmt.Println("received done signal!")
	case <-interrupt:
		fmt.Println()
	}

	return driver.Close()
}
