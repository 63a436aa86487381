package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"bundler/chains"
	"bundler/config"
	"bundler/controllers"
	"bundler/entrypoint"
	"bundler/logger"
	"bundler/routes"
	"bundler/services"
	"bundler/store"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const startupTimeout = 15 * time.Second

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath, envFile string

	root := &cobra.Command{
		Use:           "bundler",
		Short:         "ERC-4337 bundler that forwards UserOperations to the EntryPoint",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(configPath, envFile)
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to the config file")
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the config")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP server",
			RunE: func(cmd *cobra.Command, args []string) error {
				return serve(configPath, envFile)
			},
		},
		&cobra.Command{
			Use:   "chains",
			Short: "Validate the chain registry and print it",
			RunE: func(cmd *cobra.Command, args []string) error {
				settings, err := loadSettings(configPath, envFile)
				if err != nil {
					return err
				}
				reg, err := chains.NewRegistry(settings.Chains)
				if err != nil {
					return err
				}
				for _, name := range reg.Names() {
					cfg, err := reg.Resolve(name)
					if err != nil {
						return err
					}
					marker := " "
					if name == settings.CurrentChain {
						marker = "*"
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s %-12s %-6s chain_id=%s entrypoint=%s\n",
						marker, cfg.Name, cfg.Currency, cfg.ChainID, cfg.EntryPoint.Hex())
				}
				return nil
			},
		},
	)
	return root
}

func loadSettings(configPath, envFile string) (*config.Settings, error) {
	// 加载环境变量
	if err := config.LoadEnv(envFile); err != nil {
		return nil, err
	}
	return config.Load(configPath)
}

func serve(configPath, envFile string) error {
	settings, err := loadSettings(configPath, envFile)
	if err != nil {
		return err
	}

	log, err := logger.New(settings.Log)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	reg, err := chains.NewRegistry(settings.Chains)
	if err != nil {
		return err
	}

	// 当前链必须在注册表中，否则直接退出
	metadata := services.NewMetadataService(reg, settings.CurrentChain)
	active, err := metadata.GetActiveMetadata()
	if err != nil {
		return err
	}
	log.Info("active chain", zap.String("chain", active.Chain), zap.String("currency", active.Currency))

	signer, err := entrypoint.NewSigner(settings.Signer.PrivateKey, settings.Signer.Beneficiary, settings.Signer.GasLimit)
	if err != nil {
		return err
	}
	dispatcher, err := entrypoint.NewDispatcher(reg, signer, log.Named("entrypoint"))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	// 连接以太坊客户端
	conns, err := chains.Dial(ctx, reg)
	if err != nil {
		return err
	}
	defer conns.Close()

	var tokens *services.TokenMetadataService
	if settings.MySQL.DSN != "" {
		db, err := config.ConnectDB(ctx, settings.MySQL.DSN)
		if err != nil {
			return err
		}
		defer db.Close()

		tokenStore := store.NewTokenMetadataStore(db)
		if err := tokenStore.Migrate(ctx); err != nil {
			return err
		}
		tokens = services.NewTokenMetadataService(reg, tokenStore)
	} else {
		log.Warn("mysql.dsn is empty, token metadata endpoints are disabled")
	}

	var oplog controllers.OperationLog
	if settings.Mongo.URI != "" {
		client, err := config.GetMongoClient(ctx, settings.Mongo.URI)
		if err != nil {
			return err
		}
		defer client.Disconnect(context.Background()) //nolint:errcheck

		opStore := store.NewOperationLog(client.Database(settings.Mongo.Database), settings.Mongo.Collection)
		if err := opStore.EnsureIndexes(ctx); err != nil {
			return err
		}
		oplog = opStore
	} else {
		log.Warn("mongo.uri is empty, submissions are not recorded")
	}

	gin.SetMode(gin.ReleaseMode)
	r := routes.SetupRouter(log.Named("http"))

	// 创建 Controller 实例并初始化路由
	userOpController := controllers.NewUserOpController(dispatcher, conns, oplog, metadata,
		settings.Server.SubmitTimeout, log.Named("userop"))
	metadataController := controllers.NewMetadataController(metadata, tokens, reg.Names(), log.Named("metadata"))
	routes.SetupUserOpRouter(r, userOpController)
	routes.SetupMetadataRouter(r, metadataController)

	log.Info("bundler listening",
		zap.String("addr", settings.Server.Addr()),
		zap.Stringer("signer", signer.Address()),
		zap.Stringer("beneficiary", signer.Beneficiary()),
		zap.Strings("chains", reg.Names()),
	)

	// 运行服务器
	if err := r.Run(settings.Server.Addr()); err != nil {
		return fmt.Errorf("failed to run server: %w", err)
	}
	return nil
}
