// Package redis connects to Redis with go-redis/v9.
//
// Connect parses REDIS_URL, pings with retries and returns a ready
// *redis.Client. Healthcheck adapts the client to the readiness check. The
// usage ledger in internal/store/redisstore is built on the returned client.
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
package redis
