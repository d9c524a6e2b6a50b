package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"weather-dashboard/config"
	"weather-dashboard/internal/api"
	"weather-dashboard/internal/collector"
	"weather-dashboard/internal/dashboard"
	"weather-dashboard/internal/dayphase"
	"weather-dashboard/internal/mqtt"
	"weather-dashboard/internal/store"
	"weather-dashboard/internal/weather"

	"github.com/spf13/cobra"
)

var (
	configFile string
	verbose    bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "weather-dashboard",
		Short: "Weather dashboard",
		Long:  "Current weather, air quality and forecast with backgrounds that follow the sun",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				log.SetFlags(log.LstdFlags | log.Lshortfile)
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(resolveCmd())
	rootCmd.AddCommand(fetchCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newProvider(cfg config.WeatherConfig) weather.Provider {
	client := weather.NewOpenWeatherClient(weather.ClientConfig{
		APIKey:        cfg.APIKey,
		Units:         cfg.Units,
		BaseURL:       cfg.BaseURL,
		Timeout:       cfg.Timeout,
		DemoCity:      cfg.DefaultCity,
		DemoLatitude:  cfg.Latitude,
		DemoLongitude: cfg.Longitude,
	})
	if client.Demo() {
		log.Println("No OpenWeatherMap API key configured, serving demo data")
	}
	return client
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the dashboard",
		Long:  "Start the API server, the refresh collector, and the MQTT publisher",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			theme, err := dayphase.ParseTheme(cfg.Theme.Default)
			if err != nil {
				return fmt.Errorf("invalid theme.default: %w", err)
			}

			// Create database
			db, err := store.NewDatabase(cfg.Database.Path)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer db.Close()
			log.Printf("Database opened at %s", cfg.Database.Path)

			if removed, err := db.CleanExpired(); err != nil {
				log.Printf("Warning: failed to clean expired preferences: %v", err)
			} else if removed > 0 {
				log.Printf("Removed %d expired preferences", removed)
			}

			service := dashboard.NewService(dashboard.ServiceConfig{
				Provider: newProvider(cfg.Weather),
				CacheTTL: cfg.Weather.CacheTTL,
			})

			collCfg := collector.CollectorConfig{
				Service:     service,
				Preferences: db,
				DefaultCity: cfg.Weather.DefaultCity,
				Theme:       theme,
				Interval:    cfg.Collector.Interval,
				Enabled:     cfg.Collector.Enabled,
			}

			// Create MQTT publisher
			publisher, err := mqtt.NewPublisher(mqtt.PublisherConfig{
				Broker:      cfg.MQTT.Broker,
				ClientID:    cfg.MQTT.ClientID,
				Username:    cfg.MQTT.Username,
				Password:    cfg.MQTT.Password,
				TopicPrefix: cfg.MQTT.TopicPrefix,
				Units:       cfg.Weather.Units,
				Enabled:     cfg.MQTT.Enabled,
			})
			var broker api.ConnectionChecker
			if err != nil {
				log.Printf("Warning: MQTT connection failed: %v", err)
			} else {
				// Home Assistant discovery is published by the collector for each city it refreshes
				collCfg.Publisher = publisher
				broker = publisher
				if cfg.MQTT.Enabled {
					log.Printf("MQTT connected to %s", cfg.MQTT.Broker)
				}
			}

			coll := collector.NewCollector(collCfg)

			// Setup context for graceful shutdown
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			// Handle signals
			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

			// Start collector in goroutine
			go func() {
				if err := coll.Start(ctx); err != nil {
					log.Printf("Collector error: %v", err)
				}
			}()

			var server *api.Server
			if cfg.API.Enabled {
				server = api.NewServer(api.ServerConfig{
					Port:        cfg.API.Port,
					Service:     service,
					Collector:   coll,
					MQTT:        broker,
					Preferences: db,
					Providers:   newProvider,
					WebPath:     cfg.API.WebPath,
					Config:      cfg,
					ConfigPath:  configFile,
				})

				go func() {
					if err := server.Start(); err != nil {
						log.Printf("API server error: %v", err)
					}
				}()
			}

			log.Println("Weather Dashboard started. Press Ctrl+C to stop.")

			// Wait for signal
			<-sigChan
			log.Println("Shutting down...")
			cancel()

			if server != nil {
				shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
				defer stop()
				if err := server.Stop(shutdownCtx); err != nil {
					log.Printf("API server shutdown: %v", err)
				}
			}
			coll.Stop()

			return nil
		},
	}
}

func resolveCmd() *cobra.Command {
	var sunrise, sunset, now, theme string

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve the day phase and background for a window",
		Long:  "Classify a moment against a sunrise/sunset window and print the gradient and icon as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			rise, err := dayphase.ParseEpoch(sunrise)
			if err != nil {
				return fmt.Errorf("--sunrise: %w", err)
			}
			set, err := dayphase.ParseEpoch(sunset)
			if err != nil {
				return fmt.Errorf("--sunset: %w", err)
			}
			at := time.Now().Unix()
			if cmd.Flags().Changed("now") {
				if at, err = dayphase.ParseEpoch(now); err != nil {
					return fmt.Errorf("--now: %w", err)
				}
			}
			th, err := dayphase.ParseTheme(theme)
			if err != nil {
				return err
			}

			res, err := dayphase.Resolve(at, dayphase.DayWindow{Sunrise: rise, Sunset: set}, th)
			if err != nil {
				return err
			}

			output, _ := json.MarshalIndent(res, "", "  ")
			fmt.Println(string(output))
			return nil
		},
	}

	cmd.Flags().StringVar(&sunrise, "sunrise", "", "sunrise, epoch seconds")
	cmd.Flags().StringVar(&sunset, "sunset", "", "sunset, epoch seconds")
	cmd.Flags().StringVar(&now, "now", "", "moment to classify, epoch seconds (default: current time)")
	cmd.Flags().StringVar(&theme, "theme", "dark", "light or dark")
	_ = cmd.MarkFlagRequired("sunrise")
	_ = cmd.MarkFlagRequired("sunset")
	return cmd
}

func fetchCmd() *cobra.Command {
	var city, theme string

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch a dashboard snapshot once",
		Long:  "Fetch weather, air quality and forecast for a city and print the resolved snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if city == "" {
				city = cfg.Weather.DefaultCity
			}
			if theme == "" {
				theme = cfg.Theme.Default
			}
			th, err := dayphase.ParseTheme(theme)
			if err != nil {
				return err
			}

			service := dashboard.NewService(dashboard.ServiceConfig{Provider: newProvider(cfg.Weather)})

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			snap, err := service.Snapshot(ctx, city, th, time.Now().Unix())
			if err != nil {
				return fmt.Errorf("failed to fetch %s: %w", city, err)
			}

			output, _ := json.MarshalIndent(snap, "", "  ")
			fmt.Println(string(output))
			return nil
		},
	}

	cmd.Flags().StringVar(&city, "city", "", "city name (default: weather.default_city)")
	cmd.Flags().StringVar(&theme, "theme", "", "light or dark (default: theme.default)")
	return cmd
}
