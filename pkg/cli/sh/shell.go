// Package sh provides an interactive shell over RC input telemetry.
package sh

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/rcinput/pkg/env"
	"github.com/robotalks/rcinput/pkg/rc/msgs"
	"github.com/robotalks/rcinput/pkg/telemetry"
	"github.com/robotalks/rcinput/pkg/telemetry/mqtt"
)

// DefaultDiscoverTimeout is how long discover listens for devices.
const DefaultDiscoverTimeout = 500 * time.Millisecond

// MaxAlerts is the number of alerts kept per device.
const MaxAlerts = 32

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive     bool
	OutputJSON      bool
	DiscoverTimeout time.Duration

	Shell  *ishell.Shell
	Config *env.Config
	Queue  *mqtt.Queue
	Device *DeviceWatch
}

// DeviceWatch keeps the latest telemetry of a device.
type DeviceWatch struct {
	ID string

	sub    *mqtt.Subscription
	lock   sync.Mutex
	state  *msgs.RCInputState
	alerts []*msgs.RCAlert
}

const (
	shellKey          = "$shell"
	unconnectedPrompt = "[none] > "
)

var (
	// flags

	evalOnly   bool
	outputJSON bool

	// commands
	commands = []*ishell.Cmd{
		&DiscoverCmd,
		&ConnectCmd,
		&DisconnectCmd,
		&StateCmd,
		&AlertsCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
}

// New creates a new shell.
func New(conf *env.Config) *Shell {
	s := &Shell{
		Interactive:     !evalOnly,
		OutputJSON:      outputJSON,
		DiscoverTimeout: DefaultDiscoverTimeout,

		Shell:  ishell.New(),
		Config: conf,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(unconnectedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustBeConnected wraps command func requires a device.
func MustBeConnected(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).Device == nil {
			c.Err(fmt.Errorf("not connected"))
			return
		}
		fn(c)
	}
}

// Open connects to the MQTT broker.
func (s *Shell) Open() error {
	q, err := mqtt.NewQueueFromURL(s.Config.MQTTBrokerURL)
	if err != nil {
		return err
	}
	token := q.Connect()
	token.Wait()
	if err = token.Error(); err != nil {
		return err
	}
	s.Queue = q
	return nil
}

// Discover lists the devices publishing input state.
func (s *Shell) Discover() []string {
	found := make(map[string]struct{})
	var lock sync.Mutex
	sub := s.Queue.Sub("+/"+telemetry.TopicInput, func(topic string, payload []byte) {
		lock.Lock()
		found[strings.SplitN(topic, "/", 2)[0]] = struct{}{}
		lock.Unlock()
	})
	time.Sleep(s.DiscoverTimeout)
	sub.Close()
	lock.Lock()
	defer lock.Unlock()
	ids := make([]string, 0, len(found))
	for id := range found {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Connect starts watching the device.
func (s *Shell) Connect(id string) {
	s.Disconnect()
	w := &DeviceWatch{ID: id}
	w.sub = s.Queue.Sub(id+"/rc/#", w.handle)
	s.Device = w
	s.Shell.SetPrompt(id + " > ")
}

// Disconnect stops watching the current device.
func (s *Shell) Disconnect() {
	if s.Device != nil {
		s.Device.sub.Close()
		s.Device = nil
		s.Shell.SetPrompt(unconnectedPrompt)
	}
}

func (w *DeviceWatch) handle(topic string, payload []byte) {
	msg, err := msgs.Decode(payload)
	if err != nil {
		log.Printf("%s: %v", topic, err)
		return
	}
	w.lock.Lock()
	defer w.lock.Unlock()
	switch m := msg.(type) {
	case *msgs.RCInputState:
		w.state = m
	case *msgs.RCAlert:
		w.alerts = append(w.alerts, m)
		if len(w.alerts) > MaxAlerts {
			w.alerts = w.alerts[len(w.alerts)-MaxAlerts:]
		}
	}
}

// State returns the latest input state.
func (w *DeviceWatch) State() *msgs.RCInputState {
	w.lock.Lock()
	defer w.lock.Unlock()
	return w.state
}

// Alerts returns the recorded alerts.
func (w *DeviceWatch) Alerts() []*msgs.RCAlert {
	w.lock.Lock()
	defer w.lock.Unlock()
	return append([]*msgs.RCAlert(nil), w.alerts...)
}

// FormatState prints the state for display.
func FormatState(state *msgs.RCInputState) string {
	var sb strings.Builder
	link := "LOST"
	if state.LinkValid {
		link = "OK"
	}
	fmt.Fprintf(&sb, "link %s at %s\n", link, time.Unix(0, state.Timestamp).Format(time.StampMicro))
	for n, v := range state.Values {
		var pulse uint32
		if n < len(state.Pulses) {
			pulse = state.Pulses[n]
		}
		fmt.Fprintf(&sb, "ch%-2d %+.3f %4dus\n", n, v, pulse)
	}
	if st := state.Stats; st != nil {
		fmt.Fprintf(&sb, "ticks %d received %d idle %d failed %d interval %dus",
			st.Ticks, st.Received, st.Idle, st.Failed, st.IntervalUs)
	}
	return sb.String()
}

func (s *Shell) print(c *ishell.Context, v interface{}, text string) {
	if s.OutputJSON {
		out, err := json.Marshal(v)
		if err != nil {
			c.Err(err)
			return
		}
		c.Println(string(out))
		return
	}
	c.Println(text)
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if err := s.Open(); err != nil {
		log.Fatalf("connect %q failed: %v", s.Config.MQTTBrokerURL, err)
	}
	defer s.Queue.Close()
	if s.Config.ID != "" {
		s.Connect(s.Config.ID)
	}
	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

var (
	// DiscoverCmd lists devices.
	DiscoverCmd = ishell.Cmd{
		Name:    "discover",
		Aliases: []string{"list", "l"},
		Help:    "list devices publishing RC input",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			ids := s.Discover()
			if len(ids) == 0 && !s.OutputJSON {
				c.Println("No devices found")
				return
			}
			s.print(c, ids, strings.Join(ids, "\n"))
		},
	}

	// ConnectCmd watches a device.
	ConnectCmd = ishell.Cmd{
		Name:    "connect",
		Aliases: []string{"c"},
		Help:    "ID",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			if len(c.Args) >= 1 {
				s.Connect(c.Args[0])
				return
			}
			ids := s.Discover()
			switch {
			case len(ids) == 0:
				c.Err(fmt.Errorf("no device discovered"))
			case len(ids) == 1:
				s.Connect(ids[0])
			case !s.Interactive:
				c.Err(fmt.Errorf("more than 1 devices discovered in non-interactive mode"))
			default:
				s.Connect(ids[s.Shell.MultiChoice(ids, "Which one to connect?")])
			}
		},
	}

	// DisconnectCmd stops watching the current device.
	DisconnectCmd = ishell.Cmd{
		Name:    "disconnect",
		Aliases: []string{"d"},
		Func: func(c *ishell.Context) {
			ShellFrom(c).Disconnect()
		},
	}

	// StateCmd prints the latest input state.
	StateCmd = ishell.Cmd{
		Name:    "state",
		Aliases: []string{"s"},
		Help:    "print the latest control vector",
		Func: MustBeConnected(func(c *ishell.Context) {
			s := ShellFrom(c)
			state := s.Device.State()
			if state == nil {
				c.Err(fmt.Errorf("no state received"))
				return
			}
			s.print(c, state, FormatState(state))
		}),
	}

	// AlertsCmd prints the recorded alerts.
	AlertsCmd = ishell.Cmd{
		Name: "alerts",
		Help: "print alerts received since connected",
		Func: MustBeConnected(func(c *ishell.Context) {
			s := ShellFrom(c)
			alerts := s.Device.Alerts()
			lines := make([]string, 0, len(alerts))
			for _, a := range alerts {
				lines = append(lines, fmt.Sprintf("%s %s",
					time.Unix(0, a.Timestamp).Format(time.StampMicro), a.Name))
			}
			s.print(c, alerts, strings.Join(lines, "\n"))
		}),
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	New(env.NewConfig()).Run(flag.Args()...)
}
