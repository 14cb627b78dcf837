package config

const (
	defaultConfigPath     = "~/.config/framecast/config.toml"
	defaultServerBind     = "127.0.0.1:50051"
	defaultServerWorkers  = 10
	defaultRendererAddr   = "127.0.0.1:50052"
	defaultRendererDialMS = 2000
	defaultSceneName      = "square_to_circle"
	defaultRateFunc       = "smooth"
	defaultFrameRate      = 60.0
	defaultStateDir       = "~/.local/share/framecast"
	defaultLogDir         = "~/.local/share/framecast/logs"
	defaultEventsTopic    = "framecast/keyframes"
	defaultEventsClientID = "framecast"
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
	rendererPathEnv       = "FRAMECAST_RENDERER_PATH"
	eventsBrokerEnv       = "FRAMECAST_MQTT_BROKER"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Server: Server{
			Bind:    defaultServerBind,
			Workers: defaultServerWorkers,
		},
		Renderer: Renderer{
			Addr:          defaultRendererAddr,
			DialTimeoutMS: defaultRendererDialMS,
			Discover:      true,
		},
		Scene: Scene{
			Name:            defaultSceneName,
			FrameRate:       defaultFrameRate,
			DefaultRateFunc: defaultRateFunc,
		},
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Journal: Journal{
			Enabled: true,
		},
		Events: Events{
			Topic:    defaultEventsTopic,
			ClientID: defaultEventsClientID,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
