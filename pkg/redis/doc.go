// Package redis connects the dev backend to Redis.
//
// Connect parses REDIS_URL, pings with retries and returns a ready
// go-redis client; Healthcheck adapts the client to the probe signature used
// by httpserver.Healthcheck.
//
//	cfg := config.MustLoad[redis.Config]()
//	client, err := redis.Connect(ctx, cfg, redis.WithLogger(log))
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	storage := inbox.NewRedisStorage(client)
package redis
