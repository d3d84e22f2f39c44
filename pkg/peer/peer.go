// Package peer drives a single WebRTC peer connection from the answering
// side: it builds the media engine, interceptor registry and API, wires the
// state and data-channel callbacks, performs the offer/answer exchange and
// sends periodic random messages on every channel the remote opens.
package peer

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/pion/interceptor"
	"github.com/pion/logging"
	"github.com/pion/webrtc/v4"
)

const (
	// DefaultSendInterval is the pause between random messages.
	DefaultSendInterval = 5 * time.Second
	// DefaultMessageLength is the length of each random message.
	DefaultMessageLength = 15
)

// Config controls driver construction. The zero value is completed with
// the defaults above, a stdout writer and no STUN servers.
type Config struct {
	STUNServers   []string
	SendInterval  time.Duration
	MessageLength int
	Out           io.Writer

	// LoggerFactory, when set, routes the WebRTC library's diagnostics
	// through the application logger. Nil keeps pion's default.
	LoggerFactory logging.LoggerFactory

	// IncludeLoopbackCandidates admits loopback ICE candidates. Used by
	// in-process peers talking to themselves over 127.0.0.1.
	IncludeLoopbackCandidates bool
}

// Driver owns the peer connection and the channels the remote opens.
// Callbacks may fire on library worker goroutines; everything they touch is
// either immutable after construction or a thread-safe pion handle.
type Driver struct {
	pc            *webrtc.PeerConnection
	out           io.Writer
	sendInterval  time.Duration
	messageLength int

	done     chan struct{}
	doneOnce sync.Once
}

// NewDriver builds the API and the peer connection and installs all
// callbacks. Callbacks must be in place before any description is set.
func NewDriver(cfg Config) (*Driver, error) {
	if cfg.SendInterval <= 0 {
		cfg.SendInterval = DefaultSendInterval
	}
	if cfg.MessageLength <= 0 {
		cfg.MessageLength = DefaultMessageLength
	}
	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}

	// Media engine with the library's default codecs.
	mediaEngine := &webrtc.MediaEngine{}
	if err := mediaEngine.RegisterDefaultCodecs(); err != nil {
		return nil, fmt.Errorf("failed to register default codecs: %w", err)
	}

	// Interceptor registry: the user-configurable RTP/RTCP pipeline.
	// Provides NACKs, RTCP reports and similar features. When the engine
	// and registry are managed manually, both must be configured before
	// the connection is constructed.
	registry := &interceptor.Registry{}
	if err := webrtc.RegisterDefaultInterceptors(mediaEngine, registry); err != nil {
		return nil, fmt.Errorf("failed to register default interceptors: %w", err)
	}

	settingEngine := webrtc.SettingEngine{}
	if cfg.LoggerFactory != nil {
		settingEngine.LoggerFactory = cfg.LoggerFactory
	}
	if cfg.IncludeLoopbackCandidates {
		settingEngine.SetIncludeLoopbackCandidate(true)
	}

	api := webrtc.NewAPI(
		webrtc.WithMediaEngine(mediaEngine),
		webrtc.WithInterceptorRegistry(registry),
		webrtc.WithSettingEngine(settingEngine),
	)

	var iceServers []webrtc.ICEServer
	for _, url := range cfg.STUNServers {
		iceServers = append(iceServers, webrtc.ICEServer{URLs: []string{url}})
	}

	pc, err := api.NewPeerConnection(webrtc.Configuration{ICEServers: iceServers})
	if err != nil {
		return nil, fmt.Errorf("failed to create peer connection: %w", err)
	}

	d := &Driver{
		pc:            pc,
		out:           cfg.Out,
		sendInterval:  cfg.SendInterval,
		messageLength: cfg.MessageLength,
		done:          make(chan struct{}),
	}

	pc.OnConnectionStateChange(d.onConnectionStateChange)
	pc.OnDataChannel(d.onDataChannel)

	return d, nil
}

func (d *Driver) onConnectionStateChange(state webrtc.PeerConnectionState) {
	fmt.Fprintf(d.out, "Peer Connection State has changed: %s\n", state)

	if state == webrtc.PeerConnectionStateFailed {
		// The connection has had no network activity for some time, or
		// another failure occurred. It may be reconnected using an ICE
		// Restart; nothing is restarted here and the process keeps
		// running until interrupted. Use PeerConnectionStateDisconnected
		// for a faster timeout; the connection may come back from it.
		fmt.Fprintln(d.out, "Peer Connection has gone to failed exiting")
		// d.Stop()
	}
}

func (d *Driver) onDataChannel(channel *webrtc.DataChannel) {
	label := channel.Label()
	id := channelID(channel)
	fmt.Fprintf(d.out, "New DataChannel %s %d\n", label, id)

	channel.OnOpen(func() {
		fmt.Fprintf(d.out, "Data channel '%s'-'%d' open. Random messages will now be sent to any connected DataChannels every 5 seconds\n", label, channelID(channel))
		go d.sendLoop(channel)
	})

	channel.OnMessage(func(msg webrtc.DataChannelMessage) {
		if !utf8.Valid(msg.Data) {
			panic(fmt.Sprintf("data channel '%s' delivered a non-UTF-8 frame", label))
		}
		fmt.Fprintf(d.out, "Message from DataChannel '%s': '%s'\n", label, string(msg.Data))
	})
}

// sendLoop emits a random message on every tick until a send fails. The
// send error is not reported; Close ends the loop by closing the channel
// underneath it.
func (d *Driver) sendLoop(channel *webrtc.DataChannel) {
	ticker := time.NewTicker(d.sendInterval)
	defer ticker.Stop()

	for range ticker.C {
		message := randomMessage(d.messageLength)
		fmt.Fprintf(d.out, "Sending '%s'\n", message)

		if err := channel.SendText(message); err != nil {
			return
		}
	}
}

// Answer applies the remote offer, creates an answer and installs it as the
// local description, which also starts the local UDP listeners and ICE
// gathering.
func (d *Driver) Answer(offer webrtc.SessionDescription) error {
	if err := d.pc.SetRemoteDescription(offer); err != nil {
		return fmt.Errorf("failed to set remote description: %w", err)
	}

	answer, err := d.pc.CreateAnswer(nil)
	if err != nil {
		return fmt.Errorf("failed to create answer: %w", err)
	}

	if err := d.pc.SetLocalDescription(answer); err != nil {
		return fmt.Errorf("failed to set local description: %w", err)
	}

	return nil
}

// AddRemoteCandidate injects an ICE candidate received from the remote
// peer. The remote description must already be set.
func (d *Driver) AddRemoteCandidate(candidate webrtc.ICECandidateInit) error {
	if err := d.pc.AddICECandidate(candidate); err != nil {
		return fmt.Errorf("failed to add ICE candidate: %w", err)
	}
	return nil
}

// LocalDescription returns the current local description, or nil when none
// has been set.
func (d *Driver) LocalDescription() *webrtc.SessionDescription {
	return d.pc.LocalDescription()
}

// Stop signals the done channel. Reserved for programmatic shutdown; the
// binary terminates on interrupt instead.
func (d *Driver) Stop() {
	d.doneOnce.Do(func() { close(d.done) })
}

// Done is closed by Stop and awaited by the termination multiplexer.
func (d *Driver) Done() <-chan struct{} {
	return d.done
}

// Close tears down the peer connection. Send loops observe the closed
// channels on their next tick and end on the resulting send error.
func (d *Driver) Close() error {
	if err := d.pc.Close(); err != nil {
		return fmt.Errorf("failed to close peer connection: %w", err)
	}
	return nil
}

// channelID dereferences the channel's ID, which pion only assigns once
// negotiation has settled.
func channelID(channel *webrtc.DataChannel) uint16 {
	if id := channel.ID(); id != nil {
		return *id
	}
	return 0
}
