// Package component 聚合可安装到 redroid 镜像中的组件（GMS 提供方、翻译层、DRM 模块），
// 并提供统一的注册入口与安装驱动。
//
// 组件作者需要：
//  1. 在 internal/component/<kind>/ 目录下实现解包逻辑；
//  2. 在 init() 中调用 MustRegister 注册 Definition；
//  3. 在 internal/component/all 中匿名导入新包，使 CLI 能发现它。
//
// 下载地址与摘要来自 Catalog（内置 catalog.toml + 配置文件中的 [[Source]]），
// 下载统一走 cache.Manager，解包结果写入构建上下文下的 CopyDir。
package component
