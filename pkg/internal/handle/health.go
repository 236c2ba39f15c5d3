package handle

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	ctxPkg "github.com/yeisme/sharesmallbiz/pkg/context"
)

const timeout = 2 * time.Second

// healthKey KV 探活使用的键，不需要存在.
const healthKey = "health:probe"

type check func(ctx context.Context) error

func checkDB(ctx context.Context) error {
	dbc := ctxPkg.GetDBClient(ctx)
	if dbc == nil || dbc.DB == nil {
		return errors.New("db client not initialized")
	}

	return dbc.Ping(ctx)
}

func checkKV(ctx context.Context) error {
	kv := ctxPkg.GetKVClient(ctx)
	if kv == nil || kv.KVStore == nil {
		return errors.New("kv client not initialized")
	}

	_, err := kv.Exists(ctx, healthKey)

	return err
}

func checkS3(ctx context.Context) error {
	s3c := ctxPkg.GetS3Client(ctx)
	if s3c == nil || s3c.Client == nil {
		return errors.New("s3 client not initialized")
	}

	_, err := s3c.ListBuckets(ctx)

	return err
}

func checkMQ(ctx context.Context) error {
	// publisher 与 subscriber 在 New 中初始化，判空即可
	if ctxPkg.GetMQClient(ctx) == nil {
		return errors.New("mq client not initialized")
	}

	return nil
}

func runCheck(c *gin.Context, component string, fn check) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
	defer cancel()

	if err := fn(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"component": component, "status": "unhealthy", "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"component": component, "status": "ok"})
}

// HealthDB 数据库健康检查.
func HealthDB(c *gin.Context) { runCheck(c, "db", checkDB) }

// HealthKV 缓存后端健康检查.
func HealthKV(c *gin.Context) { runCheck(c, "kv", checkKV) }

// HealthS3 对象存储健康检查，未启用 S3 时为 unhealthy.
func HealthS3(c *gin.Context) { runCheck(c, "s3", checkS3) }

// HealthMQ 消息队列健康检查.
func HealthMQ(c *gin.Context) { runCheck(c, "mq", checkMQ) }

// Health 汇总检查. 数据库不可用时返回 503，其余组件只影响 status 字段.
//
//	@Summary		健康检查
//	@Tags			系统
//	@Produce		json
//	@Success		200	{object}	map[string]any
//	@Failure		503	{object}	map[string]any
//	@Router			/api/v1/health [get]
func Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
	defer cancel()

	components := gin.H{}
	status := "ok"
	code := http.StatusOK

	for _, item := range []struct {
		name     string
		fn       check
		required bool
	}{
		{"db", checkDB, true},
		{"kv", checkKV, false},
		{"mq", checkMQ, false},
	} {
		if err := item.fn(ctx); err != nil {
			components[item.name] = err.Error()

			if item.required {
				status, code = "unhealthy", http.StatusServiceUnavailable
			} else if status == "ok" {
				status = "degraded"
			}

			continue
		}

		components[item.name] = "ok"
	}

	if ctxPkg.GetS3Client(ctx) != nil {
		if err := checkS3(ctx); err != nil {
			components["s3"] = err.Error()
			if status == "ok" {
				status = "degraded"
			}
		} else {
			components["s3"] = "ok"
		}
	}

	c.JSON(code, gin.H{"status": status, "components": components})
}
