package gestalt_test

import (
	"context"
	"fmt"
	"time"

	"github.com/lifei6671/go-gestalt"
)

// Example 展示如何：
//  1. 注册多个 Source，后注册的覆盖先注册的
//  2. 使用占位符引用其他节点
//  3. 按类型读取配置与绑定结构体
func Example() {
	yaml := `
app:
  name: demo
  addr: "0.0.0.0:${node:app.port}"
  port: 8080
db:
  hosts: [10.0.0.1, 10.0.0.2]
  timeout: 2s
`
	g, err := gestalt.New(
		gestalt.WithSource(gestalt.NewStringSource(yaml, "yaml")),
		gestalt.WithSource(gestalt.NewMapSource(map[string]string{
			"app.port": "9090",
		})),
	)
	if err != nil {
		fmt.Println(err)
		return
	}
	if err := g.LoadConfigs(context.Background()); err != nil {
		fmt.Println(err)
		return
	}

	port, _ := gestalt.GetConfig[int](g, "app.port")
	addr, _ := gestalt.GetConfig[string](g, "app.addr")
	fmt.Println(port, addr)

	type DB struct {
		Hosts   []string      `config:"hosts"`
		Timeout time.Duration `config:"timeout"`
		MaxIdle int           `config:"max_idle,default=4"`
	}
	var db DB
	if err := g.Unmarshal("db", &db); err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(db.Hosts, db.Timeout, db.MaxIdle)

	fmt.Println(gestalt.GetConfigOrDefault(g, "app.debug", false))

	// Output:
	// 9090 0.0.0.0:9090
	// [10.0.0.1 10.0.0.2] 2s 4
	// false
}
