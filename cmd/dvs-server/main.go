package main

import (
	"context"
	"fmt"
	"log"
	"os"

	opentracing "github.com/opentracing/opentracing-go"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/dvs-io/dvs/pkg/casserver"
	"github.com/dvs-io/dvs/pkg/dlogger"
	"github.com/dvs-io/dvs/pkg/storage/localfs"
	"github.com/dvs-io/dvs/pkg/tracing"
)

// Package main wires pkg/casserver into a standalone binary, grounded on
// cmd/datamon/cmd/root.go's viper/pflag config bootstrap: flags override
// environment variables, which override dvs-server.toml, which override
// built-in defaults.
func main() {
	pflag.String("host", "0.0.0.0", "address to bind")
	pflag.Int("port", 8443, "port to bind")
	pflag.String("storage-dir", "", "directory holding object bytes")
	pflag.Int64("max-upload-size", casserver.DefaultMaxUploadSize, "maximum accepted PUT body size, in bytes")
	pflag.StringSlice("cors-origins", nil, "allowed CORS origins; empty allows all")
	pflag.String("log-level", dlogger.LogLevelInfo, "log level: debug, info, or none")
	pflag.String("jaeger-agent", "jaeger-agent:6831", "jaeger-agent host:port for request tracing")
	pflag.String("config", "", "path to dvs-server.toml")
	pflag.Parse()

	if err := viper.BindPFlags(pflag.CommandLine); err != nil {
		log.Fatalln(err)
	}
	viper.SetEnvPrefix("dvs_server")
	viper.AutomaticEnv()

	if cfgFile, _ := pflag.CommandLine.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("dvs-server")
		viper.SetConfigType("toml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("/etc/dvs")
	}
	if err := viper.ReadInConfig(); err == nil {
		log.Println("using config file:", viper.ConfigFileUsed())
	}

	cfg := casserver.Config{
		Host:          viper.GetString("host"),
		Port:          viper.GetInt("port"),
		StorageDir:    viper.GetString("storage-dir"),
		MaxUploadSize: viper.GetInt64("max-upload-size"),
		CORSOrigins:   viper.GetStringSlice("cors-origins"),
		LogLevel:      viper.GetString("log-level"),
	}
	if err := viper.UnmarshalKey("auth", &cfg.Auth); err != nil {
		log.Fatalln(err)
	}
	if cfg.StorageDir == "" {
		fmt.Fprintln(os.Stderr, "error: --storage-dir is required")
		os.Exit(1)
	}

	logger, err := dlogger.GetLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalln(err)
	}

	tracer, closer, err := tracing.Init("dvs-server", logger, viper.GetString("jaeger-agent"))
	if err != nil {
		logger.Info("failed to initialize tracing, falling back to noop tracer", zap.Error(err))
		tracer = opentracing.NoopTracer{}
	} else {
		defer closer.Close()
	}

	store := localfs.New(afero.NewOsFs(), cfg.StorageDir)
	srv := casserver.New(cfg, store, casserver.WithLogger(logger), casserver.WithTracer(tracer))

	if err := srv.Serve(context.Background()); err != nil {
		logger.Fatal("server exited with error", zap.Error(err))
	}
}
