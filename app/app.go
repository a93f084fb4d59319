// Package app 通过依赖注入容器组装存储适配器、上传接口和HTTP服务器
package app

import (
	"context"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/zzliekkas/qiniustorage/config"
	"github.com/zzliekkas/qiniustorage/db"
	"github.com/zzliekkas/qiniustorage/di"
	"github.com/zzliekkas/qiniustorage/server"
	"github.com/zzliekkas/qiniustorage/storage"
	"github.com/zzliekkas/qiniustorage/storage/cloud"
	"github.com/zzliekkas/qiniustorage/tracing"
	"github.com/zzliekkas/qiniustorage/upload"
)

// KeyStaticLocation 静态资源磁盘的根路径
const KeyStaticLocation = "QINIU_STATIC_LOCATION"

// UploadField 上传完成后写入的模型字段
const UploadField = "file"

// Option 应用选项
type Option func(*options)

type options struct {
	client    storage.Client
	gdb       *gorm.DB
	logOutput io.Writer
}

// WithClient 使用指定的云存储客户端代替七牛客户端
func WithClient(client storage.Client) Option {
	return func(o *options) {
		o.client = client
	}
}

// WithDB 使用已打开的数据库连接
func WithDB(gdb *gorm.DB) Option {
	return func(o *options) {
		o.gdb = gdb
	}
}

// WithLogOutput 设置日志输出目标
func WithLogOutput(w io.Writer) Option {
	return func(o *options) {
		o.logOutput = w
	}
}

// Application 应用容器
type Application struct {
	container *di.Container
	config    *config.Config
	hooks     *HooksManager
}

// New 创建应用并注册所有组件的构造函数
//
// 组件在第一次被使用时才会构造，因此只用到存储的命令不需要数据库。
func New(cfg *config.Config, opts ...Option) (*Application, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	a := &Application{
		container: di.New(),
		config:    cfg,
		hooks:     NewHooksManager(),
	}
	if err := a.provide(o); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *Application) provide(o *options) error {
	c := a.container

	if err := c.ProvideAll(
		func() config.Resolver { return a.config },
		NewEnvironment,
		func(r config.Resolver) (*logrus.Logger, error) { return NewLogger(r, o.logOutput) },
		func(l *logrus.Logger) logrus.FieldLogger { return l },
		storage.LoadConfig,
		func(cfg storage.Config) *http.Client { return &http.Client{Timeout: cfg.Timeout} },
		a.newStorage,
		a.newManager,
		db.LoadConfig,
		db.NewRecordStore,
		upload.LoadIssuerConfig,
		a.newIssuer,
		a.newRecorder,
		upload.NewHandler,
		tracing.LoadConfig,
		a.newTracing,
		server.LoadConfig,
		a.newHealth,
		a.newServer,
	); err != nil {
		return err
	}

	if o.client != nil {
		if err := c.Provide(func() storage.Client { return o.client }); err != nil {
			return err
		}
	} else if err := c.Provide(newQiniuClient); err != nil {
		return err
	}

	if o.gdb != nil {
		return c.Provide(func() (*gorm.DB, error) { return o.gdb, db.Migrate(o.gdb) })
	}
	return c.Provide(a.openDB)
}

func newQiniuClient(cfg storage.Config, hc *http.Client) (storage.Client, error) {
	client, err := cloud.NewQiniu(cfg, hc)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func (a *Application) newStorage(cfg storage.Config, client storage.Client, hc *http.Client, logger logrus.FieldLogger) (*storage.Storage, error) {
	return storage.New(cfg, client,
		storage.WithLogger(logger),
		storage.WithHTTPClient(hc),
	)
}

func (a *Application) newManager(base *storage.Storage, r config.Resolver) (*storage.Manager, error) {
	static, err := config.ResolveString(r, KeyStaticLocation, storage.DiskStatic)
	if err != nil {
		return nil, err
	}
	return storage.NewManagerWithLocations(base, map[string]string{
		storage.DiskMedia:  base.Location(),
		storage.DiskStatic: static,
	}), nil
}

func (a *Application) openDB(cfg db.Config, logger logrus.FieldLogger) (*gorm.DB, error) {
	gdb, err := db.Open(cfg)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(gdb); err != nil {
		_ = db.Close(gdb)
		return nil, err
	}

	a.hooks.OnShutdown("database", 100, func(context.Context) error {
		logger.Debug("关闭数据库连接")
		return db.Close(gdb)
	})
	return gdb, nil
}

func (a *Application) newIssuer(m *storage.Manager, cfg upload.IssuerConfig) (*upload.Issuer, error) {
	media, err := m.Disk(storage.DiskMedia)
	if err != nil {
		return nil, err
	}
	return upload.NewIssuer(media, cfg), nil
}

func (a *Application) newRecorder(m *storage.Manager, store *db.RecordStore, logger logrus.FieldLogger) (*upload.Recorder, error) {
	media, err := m.Disk(storage.DiskMedia)
	if err != nil {
		return nil, err
	}
	return upload.NewRecorder(db.UploadTarget(), UploadField, store, media,
		upload.WithRecorderLogger(logger),
	)
}

func (a *Application) newTracing(cfg tracing.Config, env *Environment) (*tracing.Provider, error) {
	cfg.ServiceVersion = env.AppVersion
	if cfg.Environment == "" {
		cfg.Environment = env.AppEnv
	}

	provider, err := tracing.New(context.Background(), cfg)
	if err != nil {
		return nil, err
	}
	a.hooks.OnShutdown("tracing", 200, provider.Shutdown)
	return provider, nil
}

func (a *Application) newHealth(gdb *gorm.DB) *server.Health {
	health := server.NewHealth(0)
	health.Register("database", func(ctx context.Context) error {
		return db.Ping(ctx, gdb)
	})
	return health
}

func (a *Application) newServer(cfg server.Config, handler *upload.Handler, health *server.Health, logger logrus.FieldLogger) *server.Server {
	return server.New(cfg, handler, health, logger)
}

// Container 返回依赖注入容器
func (a *Application) Container() *di.Container {
	return a.container
}

// Hooks 返回钩子管理器
func (a *Application) Hooks() *HooksManager {
	return a.hooks
}

// Logger 返回日志记录器
func (a *Application) Logger() (*logrus.Logger, error) {
	var logger *logrus.Logger
	err := a.container.Extract(&logger)
	return logger, err
}

// Storage 返回默认存储适配器
func (a *Application) Storage() (*storage.Storage, error) {
	m, err := a.Manager()
	if err != nil {
		return nil, err
	}
	return m.DefaultDisk()
}

// Manager 返回存储管理器
func (a *Application) Manager() (*storage.Manager, error) {
	var m *storage.Manager
	err := a.container.Extract(&m)
	return m, err
}

// Issuer 返回上传凭证签发器
func (a *Application) Issuer() (*upload.Issuer, error) {
	var issuer *upload.Issuer
	err := a.container.Extract(&issuer)
	return issuer, err
}

// RecordStore 返回上传记录存储
func (a *Application) RecordStore() (*db.RecordStore, error) {
	var store *db.RecordStore
	err := a.container.Extract(&store)
	return store, err
}

// Server 返回HTTP服务器
func (a *Application) Server() (*server.Server, error) {
	var srv *server.Server
	err := a.container.Extract(&srv)
	return srv, err
}

// Serve 启动追踪和HTTP服务器，阻塞到 ctx 结束后执行关闭钩子
func (a *Application) Serve(ctx context.Context) error {
	return a.container.Invoke(func(env *Environment, logger *logrus.Logger, _ *tracing.Provider, srv *server.Server) error {
		logger.Infof("应用环境信息:\n%s", env.Summary())

		runErr := srv.Run(ctx)

		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := a.Close(closeCtx); err != nil {
			logger.WithError(err).Error("关闭应用资源失败")
		}

		logger.Infof("应用已关闭，总运行时间: %s", env.Uptime())
		return runErr
	})
}

// Close 执行关闭钩子，释放数据库连接等资源
func (a *Application) Close(ctx context.Context) error {
	return a.hooks.Execute(ctx, HookShutdown)
}
